// Package meshlet partitions index buffers into GPU clusters bounded
// by a maximum unique vertex and triangle count.
package meshlet

import (
	"github.com/pkg/errors"

	"github.com/mogaika/meshlet_pipeline/utils"
)

const (
	MaxVertices  = 64
	MaxTriangles = 128
)

// Meshlet locates one cluster inside the Vertices / Triangles arrays
// returned by Build.
type Meshlet struct {
	VertexOffset   uint32
	TriangleOffset uint32
	VertexCount    uint32
	TriangleCount  uint32
}

// Result holds the scratch output of one Build call. Vertices maps
// cluster-local slots to source vertex indices; Triangles holds
// cluster-local corner indices, three per triangle, padded so every
// cluster's triangle data starts 4-byte aligned.
type Result struct {
	Meshlets  []Meshlet
	Vertices  []uint32
	Triangles []uint8
}

// Build greedily packs the triangles of the given index buffer into
// clusters of at most MaxVertices unique vertices and MaxTriangles
// triangles, covering every input triangle exactly once, in input
// order. Scratch arrays are preallocated from the triangle-count bound,
// grow when the vertex limit forces extra clusters, and are trimmed to
// the sizes implied by the last cluster before returning.
func Build(indices []uint32, vertexCount int) Result {
	if len(indices)%3 != 0 {
		panic(errors.Errorf("Meshlet build got %d indices, not divisible by 3", len(indices)))
	}

	triangleCount := len(indices) / 3
	maxMeshlets := (triangleCount + MaxTriangles - 1) / MaxTriangles
	if maxMeshlets == 0 {
		return Result{}
	}

	r := Result{
		Meshlets:  make([]Meshlet, 0, maxMeshlets),
		Vertices:  make([]uint32, 0, maxMeshlets*MaxVertices),
		Triangles: make([]uint8, 0, maxMeshlets*int(utils.Align4(MaxTriangles*3))),
	}

	// Source vertex -> cluster-local slot, -1 when unused by the
	// current cluster.
	local := make([]int32, vertexCount)
	for i := range local {
		local[i] = -1
	}

	cur := Meshlet{}

	flush := func() {
		if cur.TriangleCount == 0 {
			return
		}
		for _, v := range r.Vertices[cur.VertexOffset : cur.VertexOffset+cur.VertexCount] {
			local[v] = -1
		}
		for len(r.Triangles)%4 != 0 {
			r.Triangles = append(r.Triangles, 0)
		}
		r.Meshlets = append(r.Meshlets, cur)
		cur = Meshlet{
			VertexOffset:   uint32(len(r.Vertices)),
			TriangleOffset: uint32(len(r.Triangles)),
		}
	}

	for tri := 0; tri < triangleCount; tri++ {
		a, b, c := indices[tri*3], indices[tri*3+1], indices[tri*3+2]

		extra := uint32(0)
		if local[a] < 0 {
			extra++
		}
		if local[b] < 0 && b != a {
			extra++
		}
		if local[c] < 0 && c != a && c != b {
			extra++
		}

		if cur.VertexCount+extra > MaxVertices || cur.TriangleCount+1 > MaxTriangles {
			flush()
		}

		slot := func(v uint32) uint8 {
			if local[v] < 0 {
				local[v] = int32(cur.VertexCount)
				cur.VertexCount++
				r.Vertices = append(r.Vertices, v)
			}
			return uint8(local[v])
		}

		r.Triangles = append(r.Triangles, slot(a), slot(b), slot(c))
		cur.TriangleCount++
	}
	flush()

	if n := len(r.Meshlets); n > 0 {
		last := &r.Meshlets[n-1]
		r.Vertices = r.Vertices[:last.VertexOffset+last.VertexCount]
		r.Triangles = r.Triangles[:last.TriangleOffset+utils.Align4(last.TriangleCount*3)]
	}

	return r
}
