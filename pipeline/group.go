package pipeline

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/mogaika/meshlet_pipeline/partition"
	"github.com/mogaika/meshlet_pipeline/scene"
)

// Groups smaller than this skip partitioning entirely.
const groupingThreshold = 8

// Every four meshlets of a level become roughly one partition part.
const meshletsPerGroup = 4

// edgeKey is an unordered pair of primitive-global vertex indices.
type edgeKey struct {
	a, b uint32
}

func makeEdgeKey(a, b uint32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// groupMeshlets splits the meshlet range [first, last) of one LOD
// level into groups of neighbors. Meshlets are neighbors when they
// share a triangle edge in the primitive's vertex space. The groups
// come from a k-way min-cut partition so each group has as much
// interior as possible for the simplifier to chew on.
func groupMeshlets(p *scene.Primitive, first, last int) [][]int {
	count := last - first

	singleGroup := func() [][]int {
		all := make([]int, count)
		for i := range all {
			all[i] = first + i
		}
		return [][]int{all}
	}

	if count < groupingThreshold {
		return singleGroup()
	}

	// edge -> meshlets using it, meshlet -> edges it owns.
	edgeMeshlets := make(map[edgeKey][]int32)
	meshletEdges := make([][]edgeKey, count)

	for mi := 0; mi < count; mi++ {
		m := &p.Meshlets[first+mi]
		seen := make(map[edgeKey]struct{})

		for t := uint32(0); t < m.IndexCount; t += 3 {
			global := func(offset uint32) uint32 {
				local := uint32(p.MeshletIndices[m.IndexOffset+offset])
				return p.MeshletVertexIndices[m.VertexOffset+local]
			}
			a, b, c := global(t), global(t+1), global(t+2)

			for _, edge := range [3]edgeKey{makeEdgeKey(a, b), makeEdgeKey(b, c), makeEdgeKey(c, a)} {
				if _, ok := seen[edge]; ok {
					continue
				}
				seen[edge] = struct{}{}
				edgeMeshlets[edge] = append(edgeMeshlets[edge], int32(mi))
				meshletEdges[mi] = append(meshletEdges[mi], edge)
			}
		}
	}

	// Edges interior to a single meshlet connect nothing.
	shared := 0
	for edge, meshlets := range edgeMeshlets {
		if len(meshlets) <= 1 {
			delete(edgeMeshlets, edge)
			continue
		}
		shared++
	}
	if shared == 0 {
		return singleGroup()
	}

	g := simple.NewUndirectedGraph()
	for mi := 0; mi < count; mi++ {
		g.AddNode(simple.Node(mi))
	}
	for _, meshlets := range edgeMeshlets {
		for i := 0; i < len(meshlets); i++ {
			for j := i + 1; j < len(meshlets); j++ {
				if meshlets[i] != meshlets[j] {
					g.SetEdge(simple.Edge{F: simple.Node(meshlets[i]), T: simple.Node(meshlets[j])})
				}
			}
		}
	}

	xadj := make([]int32, 1, count+1)
	adjncy := make([]int32, 0, g.Edges().Len()*2)
	for mi := 0; mi < count; mi++ {
		neighbors := graph.NodesOf(g.From(int64(mi)))
		ids := make([]int32, len(neighbors))
		for i, n := range neighbors {
			ids[i] = int32(n.ID())
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		adjncy = append(adjncy, ids...)
		xadj = append(xadj, int32(len(adjncy)))
	}

	nparts := count / meshletsPerGroup
	parts, err := partition.Partition(xadj, adjncy, nparts)
	if err != nil {
		panic(errors.Wrapf(err, "Meshlet graph partitioning failed for primitive %q", p.Name))
	}

	groups := make([][]int, nparts)
	for mi, part := range parts {
		groups[part] = append(groups[part], first+mi)
	}
	return groups
}
