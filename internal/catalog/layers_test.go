package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLayerSpec(t *testing.T) {
	spec := ParseLayerSpec("crown;surface=filling/3;material=fill:composite|amalgam")

	assert.Equal(t, []string{"crown"}, spec.Layers)
	assert.Equal(t, "filling", spec.SurfaceLayer)
	assert.Equal(t, 3, spec.MaxSurfaces)
	assert.Equal(t, "fill", spec.MaterialLayer)
	assert.Equal(t, []string{"composite", "amalgam"}, spec.Materials)
	assert.True(t, spec.RequiresChoice())
}

func TestParseLayerSpecPlain(t *testing.T) {
	spec := ParseLayerSpec("extraction")
	assert.Equal(t, []string{"extraction"}, spec.Layers)
	assert.False(t, spec.RequiresChoice())
}

func TestResolveSurfacesAndMaterial(t *testing.T) {
	spec := ParseLayerSpec("surface=filling/2;material=fill:composite|amalgam")

	layers, err := spec.Resolve([]string{"M", "O"}, "composite")
	require.NoError(t, err)
	assert.Equal(t, []string{"filling:M", "filling:O", "fill:composite"}, layers)
}

func TestResolveEnforcesConstraints(t *testing.T) {
	spec := ParseLayerSpec("surface=filling/2;material=fill:composite")

	_, err := spec.Resolve(nil, "composite")
	assert.ErrorIs(t, err, ErrSurfaceRequired)

	_, err = spec.Resolve([]string{"M", "O", "D"}, "composite")
	assert.ErrorIs(t, err, ErrTooManySurfaces)

	_, err = spec.Resolve([]string{"X"}, "composite")
	assert.ErrorIs(t, err, ErrUnknownSurface)

	_, err = spec.Resolve([]string{"M"}, "")
	assert.ErrorIs(t, err, ErrMaterialRequired)

	_, err = spec.Resolve([]string{"M"}, "gold")
	if !errors.Is(err, ErrUnknownMaterial) {
		t.Fatalf("expected ErrUnknownMaterial got %v", err)
	}
}

func TestToothAllowed(t *testing.T) {
	item := Item{AllowedTeeth: []int{16, 26}}
	assert.True(t, item.ToothAllowed(16))
	assert.False(t, item.ToothAllowed(11))

	unrestricted := Item{}
	assert.True(t, unrestricted.ToothAllowed(11))
}
