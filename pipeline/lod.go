package pipeline

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/meshlet_pipeline/logger"
	"github.com/mogaika/meshlet_pipeline/meshlet"
	"github.com/mogaika/meshlet_pipeline/scene"
	"github.com/mogaika/meshlet_pipeline/simplify"
)

const (
	maxLOD = 25

	// Each level halves the group's index count.
	simplifyRatio = 0.5

	copyTileSize     = 1024
	metadataTileSize = 32
)

// appendMeshlets clusters the given index buffer and appends the
// result to the primitive's shared meshlet arrays, tagged with the
// given LOD. Buffer copies run tiled in parallel; every tile writes a
// disjoint range.
func appendMeshlets(p *scene.Primitive, indices []uint32, lod uint32) int {
	r := meshlet.Build(indices, p.VertexCount())
	if len(r.Meshlets) == 0 {
		return 0
	}

	baseVertex := len(p.MeshletVertexIndices)
	baseIndex := len(p.MeshletIndices)
	baseMeshlet := len(p.Meshlets)

	p.MeshletVertexIndices = append(p.MeshletVertexIndices, make([]uint32, len(r.Vertices))...)
	p.MeshletIndices = append(p.MeshletIndices, make([]uint8, len(r.Triangles))...)
	p.Meshlets = append(p.Meshlets, make([]scene.Meshlet, len(r.Meshlets))...)

	var wg sync.WaitGroup
	forTiles(len(r.Vertices), copyTileSize, &wg, func(lo, hi int) {
		copy(p.MeshletVertexIndices[baseVertex+lo:baseVertex+hi], r.Vertices[lo:hi])
	})
	forTiles(len(r.Triangles), copyTileSize, &wg, func(lo, hi int) {
		copy(p.MeshletIndices[baseIndex+lo:baseIndex+hi], r.Triangles[lo:hi])
	})
	forTiles(len(r.Meshlets), metadataTileSize, &wg, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			m := &r.Meshlets[i]
			p.Meshlets[baseMeshlet+i] = scene.Meshlet{
				VertexOffset: uint32(baseVertex) + m.VertexOffset,
				VertexCount:  m.VertexCount,
				IndexOffset:  uint32(baseIndex) + m.TriangleOffset,
				IndexCount:   m.TriangleCount * 3,
				LOD:          lod,
			}
		}
	})
	wg.Wait()

	return len(r.Meshlets)
}

func forTiles(n, tile int, wg *sync.WaitGroup, f func(lo, hi int)) {
	for lo := 0; lo < n; lo += tile {
		hi := lo + tile
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			f(lo, hi)
		}(lo, hi)
	}
}

// buildHierarchy emits the LOD-0 meshlets and iterates group +
// simplify rounds until the hierarchy bottoms out: a level collapses
// to a single meshlet, no group makes progress, or the level cap is
// hit.
func buildHierarchy(p *scene.Primitive) {
	if appendMeshlets(p, p.Indices, 0) == 0 {
		return
	}

	positions := p.Positions()

	levelStart := 0
	for lod := 0; lod < maxLOD; lod++ {
		levelEnd := len(p.Meshlets)
		if levelEnd-levelStart <= 1 {
			break
		}

		groups := groupMeshlets(p, levelStart, levelEnd)

		progressed := false
		for _, group := range groups {
			if len(group) == 0 {
				continue
			}
			if simplifyGroup(p, group, positions, lod) {
				progressed = true
			}
		}
		if !progressed {
			logger.Debugf("[lod] %s: no group simplified at lod %d, stopping", p.Name, lod)
			break
		}

		levelStart = levelEnd
	}
}

// simplifyGroup decimates one meshlet group and re-clusters the result
// at the next LOD. Groups that refuse to shrink are skipped so their
// detail survives as-is.
func simplifyGroup(p *scene.Primitive, group []int, positions []mgl32.Vec3, lod int) bool {
	groupIndices := gatherGroupIndices(p, group)
	sourceCount := len(groupIndices)
	if sourceCount == 0 {
		return false
	}

	t := float32(lod) / float32(maxLOD)
	simplified := simplify.Simplify(groupIndices, positions, simplify.Options{
		TargetIndexCount: int(float32(sourceCount) * simplifyRatio),
		TargetError:      0.9*t + 0.01*(1-t),
		LockBorder:       true,
	})
	if len(simplified) == sourceCount {
		return false
	}

	return appendMeshlets(p, simplified, uint32(lod+1)) > 0
}

// gatherGroupIndices concatenates the group's triangles translated
// back into primitive-global vertex indices.
func gatherGroupIndices(p *scene.Primitive, group []int) []uint32 {
	total := 0
	for _, mi := range group {
		total += int(p.Meshlets[mi].IndexCount)
	}

	out := make([]uint32, 0, total)
	for _, mi := range group {
		m := &p.Meshlets[mi]
		for k := uint32(0); k < m.IndexCount; k++ {
			local := uint32(p.MeshletIndices[m.IndexOffset+k])
			out = append(out, p.MeshletVertexIndices[m.VertexOffset+local])
		}
	}
	return out
}
