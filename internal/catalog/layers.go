package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Surface vocabulary for surface-selectable treatments.
var Surfaces = []string{"M", "O", "D", "B", "L", "I"}

var (
	ErrSurfaceRequired  = errors.New("catalog: surface selection required")
	ErrMaterialRequired = errors.New("catalog: material selection required")
	ErrTooManySurfaces  = errors.New("catalog: too many surfaces selected")
	ErrUnknownSurface   = errors.New("catalog: unknown surface")
	ErrUnknownMaterial  = errors.New("catalog: unknown material")
)

// LayerSpec declares which visual layers an item paints and which choices the
// operator must make before the line can be created. Specs are parsed once
// from their catalog encoding and resolved against the chosen values at add
// time; the resolved layer identifiers are stored on the quote line.
type LayerSpec struct {
	// Layers are painted unconditionally.
	Layers []string `json:"layers,omitempty"`
	// SurfaceLayer, when set, is painted once per selected surface as
	// "<SurfaceLayer>:<surface>".
	SurfaceLayer string `json:"surface_layer,omitempty"`
	// MaxSurfaces caps the selection; zero means surfaces are not selectable.
	MaxSurfaces int `json:"max_surfaces,omitempty"`
	// Materials lists the allowed material choices. A non-empty list makes
	// the choice mandatory; the resolved layer is "<MaterialLayer>:<material>".
	Materials     []string `json:"materials,omitempty"`
	MaterialLayer string   `json:"material_layer,omitempty"`
}

// RequiresChoice reports whether placement must be deferred until the
// operator picked surfaces and/or a material.
func (s LayerSpec) RequiresChoice() bool {
	return s.MaxSurfaces > 0 || len(s.Materials) > 0
}

// Resolve validates the chosen surfaces/material against the spec and returns
// the final layer identifiers to store on the quote line.
func (s LayerSpec) Resolve(surfaces []string, material string) ([]string, error) {
	resolved := append([]string(nil), s.Layers...)

	if s.MaxSurfaces > 0 {
		if len(surfaces) == 0 {
			return nil, ErrSurfaceRequired
		}
		if len(surfaces) > s.MaxSurfaces {
			return nil, fmt.Errorf("%w: %d selected, %d allowed", ErrTooManySurfaces, len(surfaces), s.MaxSurfaces)
		}
		for _, surf := range surfaces {
			if !validSurface(surf) {
				return nil, fmt.Errorf("%w: %q", ErrUnknownSurface, surf)
			}
			resolved = append(resolved, s.SurfaceLayer+":"+surf)
		}
	}

	if len(s.Materials) > 0 {
		if material == "" {
			return nil, ErrMaterialRequired
		}
		if !contains(s.Materials, material) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMaterial, material)
		}
		resolved = append(resolved, s.MaterialLayer+":"+material)
	}

	return resolved, nil
}

// ParseLayerSpec reads the compact catalog encoding, e.g.
// "crown;surface=filling/3;material=composite|amalgam". Unknown segments are
// ignored so older catalogs keep loading.
func ParseLayerSpec(encoded string) LayerSpec {
	var spec LayerSpec
	for _, part := range strings.Split(encoded, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch {
		case strings.HasPrefix(part, "surface="):
			layer, maxStr, _ := strings.Cut(strings.TrimPrefix(part, "surface="), "/")
			spec.SurfaceLayer = layer
			spec.MaxSurfaces = 1
			if n := parsePositive(maxStr); n > 0 {
				spec.MaxSurfaces = n
			}
		case strings.HasPrefix(part, "material="):
			body := strings.TrimPrefix(part, "material=")
			layer := "material"
			if l, opts, ok := strings.Cut(body, ":"); ok {
				layer = l
				body = opts
			}
			spec.MaterialLayer = layer
			for _, m := range strings.Split(body, "|") {
				if m = strings.TrimSpace(m); m != "" {
					spec.Materials = append(spec.Materials, m)
				}
			}
		default:
			spec.Layers = append(spec.Layers, part)
		}
	}
	return spec
}

func parsePositive(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func validSurface(s string) bool {
	return contains(Surfaces, s)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
