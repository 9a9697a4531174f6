package patients

import (
	"context"
	"time"

	"github.com/dentora/dentora/internal/odontogram"
)

// Service owns patient registry operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, req CreatePatientRequest) (*Patient, error) {
	now := s.now()
	p := &Patient{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		BirthDate: req.BirthDate,
		Comment:   req.Comment,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, search string, limit, offset int) ([]Patient, error) {
	return s.repo.List(ctx, search, limit, offset)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdatePatientRequest) (*Patient, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Email != nil {
		p.Email = req.Email
	}
	if req.Phone != nil {
		p.Phone = req.Phone
	}
	if req.BirthDate != nil {
		p.BirthDate = req.BirthDate
	}
	if req.Comment != nil {
		p.Comment = *req.Comment
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// PatientName resolves the display name used on printed documents.
func (s *Service) PatientName(ctx context.Context, id int64) (string, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

// Baseline returns the patient's dental record used as odontogram baseline.
func (s *Service) Baseline(ctx context.Context, patientID int64) (odontogram.State, error) {
	return s.repo.Baseline(ctx, patientID)
}

// SetBaseline replaces the dental record. Tooth numbers outside the FDI
// scheme are dropped silently; the editor never sends them.
func (s *Service) SetBaseline(ctx context.Context, patientID int64, state odontogram.State) error {
	clean := make(odontogram.State, len(state))
	for tooth, st := range state {
		if odontogram.ValidTooth(tooth) {
			clean[tooth] = st
		}
	}
	return s.repo.SetBaseline(ctx, patientID, clean)
}
