package pipeline

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"github.com/mogaika/meshlet_pipeline/logger"
	"github.com/mogaika/meshlet_pipeline/scene"
	"github.com/mogaika/meshlet_pipeline/status"
)

// ProcessPrimitive runs the full conditioning chain on one primitive:
// expand, synthesize missing normals and tangents, repair collinear
// tangents, collapse, then build the meshlet LOD hierarchy.
func ProcessPrimitive(p *scene.Primitive) {
	if len(p.Indices) == 0 {
		return
	}

	em := expandPrimitive(p)

	if !p.HadNormals {
		generateFlatNormals(em, p.Name)
	}
	if !p.HadTangents {
		generateTangents(em, p.Name)
	}
	fixCollinearTangents(em, p.Name)

	collapsePrimitive(em, p)
	buildHierarchy(p)
	checkMeshletInvariants(p)
}

// ProcessScene conditions every primitive using a bounded worker pool.
// Primitives share nothing, so they parallelize freely.
func ProcessScene(s *scene.Scene, workers int) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	var done int
	var doneLock sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p := s.Primitives[i]
				ProcessPrimitive(p)
				logger.Infof("[pipeline] %s: %d vertices, %d indices, %d meshlets",
					p.Name, p.VertexCount(), len(p.Indices), len(p.Meshlets))

				doneLock.Lock()
				done++
				status.PrimitiveDone(p.Name, done, len(s.Primitives))
				doneLock.Unlock()
			}
		}()
	}

	for i := range s.Primitives {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// checkMeshletInvariants asserts the structural guarantees of the
// finished hierarchy. A violation is a programming error.
func checkMeshletInvariants(p *scene.Primitive) {
	lastLOD := uint32(0)
	for i := range p.Meshlets {
		m := &p.Meshlets[i]

		if m.LOD < lastLOD {
			panic(errors.Errorf("Primitive %q meshlet %d lod %d after lod %d", p.Name, i, m.LOD, lastLOD))
		}
		lastLOD = m.LOD

		if m.VertexCount > scene.MeshletMaxVertices {
			panic(errors.Errorf("Primitive %q meshlet %d has %d vertices", p.Name, i, m.VertexCount))
		}
		if m.IndexCount%3 != 0 || m.IndexCount > scene.MeshletMaxTriangles*3 {
			panic(errors.Errorf("Primitive %q meshlet %d has %d indices", p.Name, i, m.IndexCount))
		}
		if int(m.VertexOffset)+int(m.VertexCount) > len(p.MeshletVertexIndices) {
			panic(errors.Errorf("Primitive %q meshlet %d vertex range out of bounds", p.Name, i))
		}
		if int(m.IndexOffset)+int(m.IndexCount) > len(p.MeshletIndices) {
			panic(errors.Errorf("Primitive %q meshlet %d index range out of bounds", p.Name, i))
		}

		for k := uint32(0); k < m.IndexCount; k++ {
			local := uint32(p.MeshletIndices[m.IndexOffset+k])
			if local >= m.VertexCount {
				panic(errors.Errorf("Primitive %q meshlet %d local index %d >= %d", p.Name, i, local, m.VertexCount))
			}
		}
		for k := uint32(0); k < m.VertexCount; k++ {
			if int(p.MeshletVertexIndices[m.VertexOffset+k]) >= p.VertexCount() {
				panic(errors.Errorf("Primitive %q meshlet %d references missing vertex", p.Name, i))
			}
		}
	}
}
