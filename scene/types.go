package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

const (
	MeshletMaxVertices  = 64
	MeshletMaxTriangles = 128
)

// Vertex is the rigid GPU vertex layout produced by the pipeline.
// Tangent w carries the bitangent handedness sign.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Tangent  mgl32.Vec4
	Color    mgl32.Vec3
	UV       mgl32.Vec2
}

// SkinnedVertex extends Vertex with four bone influences.
type SkinnedVertex struct {
	Vertex
	BoneIds     [4]uint16
	BoneWeights mgl32.Vec4
}

// Meshlet is one cluster of the LOD hierarchy. Offsets index into the
// owning primitive's MeshletVertexIndices / MeshletIndices arrays.
type Meshlet struct {
	VertexOffset uint32
	VertexCount  uint32
	IndexOffset  uint32
	IndexCount   uint32
	LOD          uint32
}

func (m *Meshlet) TriangleCount() uint32 {
	return m.IndexCount / 3
}

// Primitive is the unit of pipeline processing. Exactly one of
// Vertices / SkinnedVertices is populated, selected by IsSkinned.
type Primitive struct {
	Name      string
	IsSkinned bool

	Vertices        []Vertex
	SkinnedVertices []SkinnedVertex
	Indices         []uint32

	// Which attributes were present in the source file.
	HadNormals   bool
	HadTangents  bool
	HadTexCoords bool

	Meshlets             []Meshlet
	MeshletVertexIndices []uint32
	MeshletIndices       []uint8

	// Location of the source gltf.Primitive so the writer can swap
	// its accessors in place.
	meshIndex int
	primIndex int
}

func (p *Primitive) VertexCount() int {
	if p.IsSkinned {
		return len(p.SkinnedVertices)
	}
	return len(p.Vertices)
}

func (p *Primitive) Position(i uint32) mgl32.Vec3 {
	if p.IsSkinned {
		return p.SkinnedVertices[i].Position
	}
	return p.Vertices[i].Position
}

// Positions flattens the vertex buffer positions, the form consumed by
// the simplifier.
func (p *Primitive) Positions() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, p.VertexCount())
	for i := range out {
		out[i] = p.Position(uint32(i))
	}
	return out
}

// Scene is the loaded document plus the primitives the pipeline
// conditions. Nodes, materials, textures, animations and asset
// metadata stay inside Doc untouched.
type Scene struct {
	Doc        *gltf.Document
	Primitives []*Primitive
}
