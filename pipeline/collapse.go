package pipeline

import (
	"github.com/pkg/errors"

	"github.com/mogaika/meshlet_pipeline/scene"
	"github.com/mogaika/meshlet_pipeline/utils"
)

// Componentwise tolerance under which two corner vertices are merged.
const vertexMergeEpsilon = 1e-6

// collapsePrimitive rebuilds the primitive's indexed buffers from the
// soup. Corners that came from the same source vertex and still agree
// on every attribute share one slot; corners that diverged (split
// normals, regenerated tangents) get their own. The walk follows the
// source index order so output is deterministic.
func collapsePrimitive(em *expandedMesh, p *scene.Primitive) {
	indices := make([]uint32, 0, len(em.vertices))
	var vertices []scene.Vertex
	var skinnedVertices []scene.SkinnedVertex

	nextIndex := int32(0)
	for i := range em.vertices {
		corner := &em.vertices[i]

		assigned := int32(-1)
		for _, sib := range em.duplicatedVertices[corner.originalIndex] {
			sibCorner := &em.vertices[sib]
			if sibCorner.newIndex < 0 {
				continue
			}
			if sameVertex(&sibCorner.vertex, &corner.vertex, em.isSkinned) {
				assigned = sibCorner.newIndex
				break
			}
		}

		if assigned < 0 {
			assigned = nextIndex
			nextIndex++
			if em.isSkinned {
				skinnedVertices = append(skinnedVertices, corner.vertex)
			} else {
				vertices = append(vertices, corner.vertex.Vertex)
			}
		}

		corner.newIndex = assigned
		indices = append(indices, uint32(assigned))
	}

	p.Indices = indices
	p.Vertices = vertices
	p.SkinnedVertices = skinnedVertices

	if len(p.Indices) != len(em.vertices) {
		panic(errors.Errorf("Primitive %q collapse emitted %d indices for %d corners",
			p.Name, len(p.Indices), len(em.vertices)))
	}
	for _, index := range p.Indices {
		if int(index) >= p.VertexCount() {
			panic(errors.Errorf("Primitive %q collapse emitted out of range index %d", p.Name, index))
		}
	}
}

func sameVertex(a, b *scene.SkinnedVertex, skinned bool) bool {
	if utils.MaxComponentDiff(a.Position[:], b.Position[:]) >= vertexMergeEpsilon {
		return false
	}
	if utils.MaxComponentDiff(a.Normal[:], b.Normal[:]) >= vertexMergeEpsilon {
		return false
	}
	if utils.MaxComponentDiff(a.Tangent[:], b.Tangent[:]) >= vertexMergeEpsilon {
		return false
	}
	if utils.MaxComponentDiff(a.UV[:], b.UV[:]) >= vertexMergeEpsilon {
		return false
	}
	if utils.MaxComponentDiff(a.Color[:], b.Color[:]) >= vertexMergeEpsilon {
		return false
	}
	if skinned {
		if a.BoneIds != b.BoneIds {
			return false
		}
		if utils.MaxComponentDiff(a.BoneWeights[:], b.BoneWeights[:]) >= vertexMergeEpsilon {
			return false
		}
	}
	return true
}
