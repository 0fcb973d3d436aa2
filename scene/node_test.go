package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxforge/voxelcore/voxelmodel"
)

func TestNewNodeIdentityScale(t *testing.T) {
	n := NewNode("root")
	if n.Scale != (mgl32.Vec3{1, 1, 1}) {
		t.Fatalf("NewNode should default to identity scale, got %v", n.Scale)
	}
	if n.ID == "" {
		t.Fatal("NewNode must assign a non-empty ID")
	}
}

func TestSetModelClearsAnimationAndSetsBackLink(t *testing.T) {
	n := NewNode("leaf")
	anim := &voxelmodel.Animation{Name: "a"}
	n.SetAnimation(anim)
	if n.Animation() != anim {
		t.Fatal("SetAnimation should be visible via Animation()")
	}

	m := voxelmodel.New("m")
	n.SetModel(m)

	if n.Model() != m {
		t.Fatal("SetModel should be visible via Model()")
	}
	if n.Animation() != nil {
		t.Fatal("SetModel must clear any previously attached animation")
	}
	if m.SceneNodeID() != n.ID {
		t.Fatal("SetModel must set the model's back-link to the node's ID")
	}
}

func TestSetAnimationClearsModel(t *testing.T) {
	n := NewNode("leaf")
	n.SetModel(voxelmodel.New("m"))
	n.SetAnimation(&voxelmodel.Animation{Name: "a"})
	if n.Model() != nil {
		t.Fatal("SetAnimation must clear any previously attached model")
	}
}

func TestLocalMatrixTranslation(t *testing.T) {
	n := NewNode("t")
	n.Position.X = 5
	n.PositionF = mgl32.Vec3{0, 0.5, 0}

	m := n.LocalMatrix()
	p := m.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if p.X() != 5 || p.Y() != 0.5 {
		t.Fatalf("LocalMatrix should combine integer Position and sub-voxel PositionF, got %v", p)
	}
}

func TestWorldMatrixComposesWithParent(t *testing.T) {
	parent := NewNode("parent")
	parent.Position.X = 10

	child := NewNode("child")
	child.Position.X = 1

	parentWorld := parent.WorldMatrix(mgl32.Ident4())
	childWorld := child.WorldMatrix(parentWorld)

	p := childWorld.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if p.X() != 11 {
		t.Fatalf("child world position should be parent + child offset = 11, got %v", p.X())
	}
}

func TestWalkVisitsDepthFirstWithComposedMatrices(t *testing.T) {
	root := NewNode("root")
	root.Position.X = 1
	child := NewNode("child")
	child.Position.X = 2
	grandchild := NewNode("grandchild")
	grandchild.Position.X = 3
	child.AddChild(grandchild)
	root.AddChild(child)

	var order []string
	var xs []float32
	Walk(root, mgl32.Ident4(), func(n *Node, world mgl32.Mat4) {
		order = append(order, n.Name)
		p := world.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
		xs = append(xs, p.X())
	})

	if len(order) != 3 || order[0] != "root" || order[1] != "child" || order[2] != "grandchild" {
		t.Fatalf("Walk should visit depth-first: root, child, grandchild; got %v", order)
	}
	if xs[2] != 6 {
		t.Fatalf("grandchild's world X should be 1+2+3=6, got %v", xs[2])
	}
}

func TestFindByID(t *testing.T) {
	root := NewNode("root")
	child := NewNode("child")
	root.AddChild(child)

	if FindByID(root, child.ID) != child {
		t.Fatal("FindByID should locate a descendant by ID")
	}
	if FindByID(root, "missing") != nil {
		t.Fatal("FindByID should return nil for an unknown ID")
	}
}
