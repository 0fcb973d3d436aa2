// Package material implements the shared, identity-compared Material record
// from spec.md §3.
package material

import "github.com/google/uuid"

// Material is a reference-shared record of PBR-ish scalar fields. Equality
// is identity-based: two Materials with identical field values are still
// distinct unless they are literally the same *Material, because they were
// authored distinctly (spec.md §3). The handle ID exists purely for
// debugging/logging — equality never consults it.
type Material struct {
	handle string

	Metallic      float32
	Specular      float32
	Roughness     float32
	IOR           float32
	EmissionPower float32
	Transparency  float32
}

// New allocates a fresh, independently-identified Material.
func New() *Material {
	return &Material{handle: uuid.NewString()}
}

// Default returns the all-zero material meshers fall back to when a voxel
// references a material index with no backing entry (spec.md §4.3.4).
func Default() *Material {
	return New()
}

// Same reports identity equality: the same authored handle, not matching
// field values. A nil receiver/argument is never Same as anything but nil.
func Same(a, b *Material) bool {
	return a == b
}

// Handle returns the material's stable debug identity string.
func (m *Material) Handle() string {
	if m == nil {
		return ""
	}
	return m.handle
}
