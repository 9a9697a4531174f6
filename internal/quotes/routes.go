package quotes

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/patients/{patientID}/quotes", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
	})

	r.Route("/quotes/{id}", func(r chi.Router) {
		r.Get("/", h.Show)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)
		r.Post("/restore", h.Restore)
		r.Post("/duplicate", h.Duplicate)
		r.Post("/transition", h.Transition)
		r.Put("/discount", h.SetDiscount)

		r.Post("/items", h.AddItem)
		r.Patch("/items/{lineID}", h.UpdateItem)
		r.Delete("/items/{lineID}", h.RemoveItem)
		r.Delete("/full-mouth/{catalogItemID}", h.RemoveLastFullMouth)

		r.Get("/merged", h.Merged)
		r.Post("/sessions/move", h.MoveGroup)
		r.Get("/odontogram", h.Odontogram)
	})
}
