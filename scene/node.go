// Package scene implements the SceneNode tree from spec.md §3: a node with
// transform, an optional VoxelModel or VoxelAnimation reference, and
// children, composing model matrices during traversal.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/voxforge/voxelcore/internal/vecmath"
	"github.com/voxforge/voxelcore/voxelmodel"
)

// Node is a tree node with name, position, Euler rotation, scale, and a
// shared reference to a Model or an Animation (never both, enforced by
// SetModel/SetAnimation clearing the other).
type Node struct {
	ID   string
	Name string

	Position vecmath.Vec3i // integer grid offset; fractional placement uses Position/Scale combos as needed by callers
	PositionF mgl32.Vec3   // sub-voxel float offset, added to Position when composing the matrix
	Rotation  mgl32.Vec3   // Euler radians
	Scale     mgl32.Vec3

	model     *voxelmodel.Model
	animation *voxelmodel.Animation

	Children []*Node
}

// NewNode allocates a node with identity scale and a fresh ID.
func NewNode(name string) *Node {
	return &Node{
		ID:    uuid.NewString(),
		Name:  name,
		Scale: mgl32.Vec3{1, 1, 1},
	}
}

// SetModel attaches a VoxelModel and clears any VoxelAnimation, maintaining
// the "never both" invariant; it also sets the model's back-link.
func (n *Node) SetModel(m *voxelmodel.Model) {
	n.animation = nil
	n.model = m
	if m != nil {
		m.SetSceneNodeID(n.ID)
	}
}

// SetAnimation attaches a VoxelAnimation and clears any VoxelModel.
func (n *Node) SetAnimation(a *voxelmodel.Animation) {
	n.model = nil
	n.animation = a
}

func (n *Node) Model() *voxelmodel.Model         { return n.model }
func (n *Node) Animation() *voxelmodel.Animation { return n.animation }

// AddChild appends a child node.
func (n *Node) AddChild(child *Node) { n.Children = append(n.Children, child) }

// LocalMatrix computes the node's own SRT matrix, ignoring parents.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	pos := mgl32.Vec3{
		float32(n.Position.X) + n.PositionF.X(),
		float32(n.Position.Y) + n.PositionF.Y(),
		float32(n.Position.Z) + n.PositionF.Z(),
	}
	return vecmath.ComposeSRT(pos, n.Rotation, n.Scale)
}

// WorldMatrix composes the node's local matrix with every ancestor's local
// matrix, given the immediate parent's already-composed world matrix (or
// mgl32.Ident4() for a root node).
func (n *Node) WorldMatrix(parentWorld mgl32.Mat4) mgl32.Mat4 {
	return parentWorld.Mul4(n.LocalMatrix())
}

// Walk visits n and every descendant depth-first, calling fn with each
// node's already-composed world matrix.
func Walk(root *Node, parentWorld mgl32.Mat4, fn func(n *Node, world mgl32.Mat4)) {
	world := root.WorldMatrix(parentWorld)
	fn(root, world)
	for _, child := range root.Children {
		Walk(child, world, fn)
	}
}

// FindByID searches the tree rooted at root for a node with the given ID,
// resolving the weak VoxelModel->SceneNode back-link.
func FindByID(root *Node, id string) *Node {
	if root.ID == id {
		return root
	}
	for _, c := range root.Children {
		if found := FindByID(c, id); found != nil {
			return found
		}
	}
	return nil
}
