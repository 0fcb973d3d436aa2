// Package voxelmodel implements VoxelModel and VoxelAnimation from
// spec.md §3: a scene leaf owning a VoxelSpace, its bounding box, material
// and texture tables, and identity/back-link bookkeeping.
package voxelmodel

import (
	"github.com/voxforge/voxelcore/internal/vecmath"
	"github.com/voxforge/voxelcore/material"
	"github.com/voxforge/voxelcore/texture"
	"github.com/voxforge/voxelcore/voxel"
	"github.com/voxforge/voxelcore/voxelspace"
)

// Model is one scene leaf: a sparse voxel grid plus its authoring metadata.
type Model struct {
	Name           string
	Space          *voxelspace.VoxelSpace
	Materials      []*material.Material
	Textures       map[texture.Type]*texture.Texture
	Pivot          vecmath.Vec3i
	FrameDurationMS uint32 // only meaningful as an animation frame

	// sceneNodeID is a weak back-link to the owning SceneNode, resolved by
	// ID through the scene tree rather than a strong pointer (spec.md §9's
	// "cyclic references -> back-references + IDs").
	sceneNodeID string
}

// New creates an empty model with a fresh VoxelSpace.
func New(name string) *Model {
	return &Model{
		Name:     name,
		Space:    voxelspace.New(),
		Textures: make(map[texture.Type]*texture.Texture),
	}
}

// BBox computes the model's bounding box over all instantiated cells by
// unioning every chunk's total bbox. It is recomputed on demand rather
// than cached, since the model does not otherwise track a dirty flag of
// its own (each chunk already does).
func (m *Model) BBox() vecmath.BBox {
	box := vecmath.EmptyBBox()
	for _, meta := range m.Space.QueryChunks(nil) {
		box = box.Union(meta.TotalBBox)
	}
	return box
}

// MaterialFor resolves a voxel's material index against the model's
// material table, falling back to the zero-value default material
// (spec.md §4.3.4: "missing materials resolve to a default (all-zero)
// material") if the index is out of range or the table is empty.
func (m *Model) MaterialFor(cell voxel.Cell) *material.Material {
	idx := int(cell.MaterialIndex)
	if idx < 0 || idx >= len(m.Materials) || m.Materials[idx] == nil {
		return material.Default()
	}
	return m.Materials[idx]
}

// SetSceneNodeID records the ID of the SceneNode that owns this model.
func (m *Model) SetSceneNodeID(id string) { m.sceneNodeID = id }

// SceneNodeID returns the owning SceneNode's ID, or "" if none.
func (m *Model) SceneNodeID() string { return m.sceneNodeID }

// Animation is an ordered sequence of (Model, cumulative_time_ms) frames.
type Animation struct {
	Name   string
	Frames []AnimationFrame
}

type AnimationFrame struct {
	Model          *Model
	CumulativeTime uint32 // milliseconds
}

// FrameAt returns the last frame whose cumulative time is <= timeMS, i.e.
// the frame that is active at that point in the animation, or the first
// frame if timeMS precedes every frame.
func (a *Animation) FrameAt(timeMS uint32) (AnimationFrame, bool) {
	if len(a.Frames) == 0 {
		return AnimationFrame{}, false
	}
	best := a.Frames[0]
	for _, f := range a.Frames {
		if f.CumulativeTime <= timeMS {
			best = f
		}
	}
	return best, true
}
