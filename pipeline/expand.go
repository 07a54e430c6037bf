package pipeline

import (
	"github.com/pkg/errors"

	"github.com/mogaika/meshlet_pipeline/scene"
)

// expandedVertex is one triangle corner of the unindexed soup. newIndex
// stays -1 until the collapse pass assigns a slot in the rebuilt
// vertex buffer.
type expandedVertex struct {
	vertex        scene.SkinnedVertex
	originalIndex uint32
	newIndex      int32
}

// expandedMesh lives only between the expand and collapse stages of a
// single primitive. duplicatedVertices maps every original vertex index
// to the corner positions that referenced it.
type expandedMesh struct {
	isSkinned          bool
	vertices           []expandedVertex
	duplicatedVertices [][]uint32
}

func expandPrimitive(p *scene.Primitive) *expandedMesh {
	if len(p.Indices)%3 != 0 {
		panic(errors.Errorf("Primitive %q has %d indices, not divisible by 3", p.Name, len(p.Indices)))
	}

	em := &expandedMesh{
		isSkinned:          p.IsSkinned,
		vertices:           make([]expandedVertex, len(p.Indices)),
		duplicatedVertices: make([][]uint32, p.VertexCount()),
	}

	for i, index := range p.Indices {
		if int(index) >= p.VertexCount() {
			panic(errors.Errorf("Primitive %q index %d out of range (%d vertices)", p.Name, index, p.VertexCount()))
		}

		var v scene.SkinnedVertex
		if p.IsSkinned {
			v = p.SkinnedVertices[index]
		} else {
			v = scene.SkinnedVertex{Vertex: p.Vertices[index]}
		}

		em.vertices[i] = expandedVertex{
			vertex:        v,
			originalIndex: index,
			newIndex:      -1,
		}
		em.duplicatedVertices[index] = append(em.duplicatedVertices[index], uint32(i))
	}

	return em
}
