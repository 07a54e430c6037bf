// Package simplify reduces triangle meshes with iterative quadric
// error edge collapses. Border edges of the submitted triangle subset
// can be locked so the seam to neighboring geometry is preserved
// exactly.
package simplify

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/meshlet_pipeline/utils"
)

type Options struct {
	// Stop once the index buffer is at or below this size.
	TargetIndexCount int
	// Maximum collapse error, relative to the extent of the submitted
	// geometry.
	TargetError float32
	// Forbid collapsing vertices on the subset boundary.
	LockBorder bool
}

// quadric is a symmetric 4x4 plane-distance error matrix stored as its
// upper triangle.
type quadric [10]float64

func (q *quadric) add(o *quadric) {
	for i := range q {
		q[i] += o[i]
	}
}

func (q *quadric) addPlane(a, b, c, d float64) {
	q[0] += a * a
	q[1] += a * b
	q[2] += a * c
	q[3] += a * d
	q[4] += b * b
	q[5] += b * c
	q[6] += b * d
	q[7] += c * c
	q[8] += c * d
	q[9] += d * d
}

func (q *quadric) errorAt(p mgl32.Vec3) float64 {
	x, y, z := float64(p[0]), float64(p[1]), float64(p[2])
	return q[0]*x*x + 2*q[1]*x*y + 2*q[2]*x*z + 2*q[3]*x +
		q[4]*y*y + 2*q[5]*y*z + 2*q[6]*y +
		q[7]*z*z + 2*q[8]*z +
		q[9]
}

type edgeKey struct {
	a, b uint32
}

func makeEdgeKey(a, b uint32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// Simplify collapses edges of the given triangle subset until the
// index buffer reaches opts.TargetIndexCount or no collapse stays
// within the error budget. Vertex positions are never moved; each
// collapse snaps one endpoint onto the other. If nothing can be
// collapsed, the input indices are returned unchanged, which callers
// use to detect stagnation.
func Simplify(indices []uint32, positions []mgl32.Vec3, opts Options) []uint32 {
	if len(indices)%3 != 0 {
		panic(errors.Errorf("Simplify got %d indices, not divisible by 3", len(indices)))
	}
	if len(indices) <= opts.TargetIndexCount {
		return indices
	}

	maxError := collapseErrorLimit(indices, positions, opts.TargetError)

	current := indices
	for len(current) > opts.TargetIndexCount {
		next, collapsed := collapsePass(current, positions, opts, maxError)
		if !collapsed {
			break
		}
		current = next
	}

	return current
}

// collapseErrorLimit converts the relative error budget into an
// absolute squared plane distance using the subset's bounding extent.
func collapseErrorLimit(indices []uint32, positions []mgl32.Vec3, targetError float32) float64 {
	min := positions[indices[0]]
	max := min
	for _, index := range indices {
		p := positions[index]
		for c := 0; c < 3; c++ {
			if p[c] < min[c] {
				min[c] = p[c]
			}
			if p[c] > max[c] {
				max[c] = p[c]
			}
		}
	}
	extent := float64(max.Sub(min).Len())
	limit := extent * float64(targetError)
	return limit * limit
}

// collapsePass runs one greedy sweep: rank all collapsible edges by
// quadric error, apply non-conflicting collapses cheapest first,
// rebuild the triangle list. Reports whether anything collapsed.
func collapsePass(indices []uint32, positions []mgl32.Vec3, opts Options, maxError float64) ([]uint32, bool) {
	quadrics := make(map[uint32]*quadric)
	edgeTriangles := make(map[edgeKey]int)

	vertexQuadric := func(v uint32) *quadric {
		q := quadrics[v]
		if q == nil {
			q = &quadric{}
			quadrics[v] = q
		}
		return q
	}

	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]

		pa, pb, pc := positions[a], positions[b], positions[c]
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		if l := n.Len(); l > 0 {
			n = n.Mul(1.0 / l)
			plane := utils.FloatArray32to64(n[:])
			d := -float64(n.Dot(pa))
			for _, v := range [3]uint32{a, b, c} {
				vertexQuadric(v).addPlane(plane[0], plane[1], plane[2], d)
			}
		}

		edgeTriangles[makeEdgeKey(a, b)]++
		edgeTriangles[makeEdgeKey(b, c)]++
		edgeTriangles[makeEdgeKey(c, a)]++
	}

	locked := make(map[uint32]bool)
	if opts.LockBorder {
		for edge, count := range edgeTriangles {
			if count == 1 {
				locked[edge.a] = true
				locked[edge.b] = true
			}
		}
	}

	type candidate struct {
		cost float64
		keep uint32
		drop uint32
	}

	candidates := make([]candidate, 0, len(edgeTriangles))
	for edge := range edgeTriangles {
		aLocked, bLocked := locked[edge.a], locked[edge.b]
		if aLocked && bLocked {
			continue
		}

		combined := *vertexQuadric(edge.a)
		combined.add(vertexQuadric(edge.b))

		costA := combined.errorAt(positions[edge.a])
		costB := combined.errorAt(positions[edge.b])

		var c candidate
		switch {
		case aLocked:
			c = candidate{cost: costA, keep: edge.a, drop: edge.b}
		case bLocked:
			c = candidate{cost: costB, keep: edge.b, drop: edge.a}
		case costA <= costB:
			c = candidate{cost: costA, keep: edge.a, drop: edge.b}
		default:
			c = candidate{cost: costB, keep: edge.b, drop: edge.a}
		}

		if c.cost <= maxError && !math.IsNaN(c.cost) {
			candidates = append(candidates, c)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].cost != candidates[j].cost {
			return candidates[i].cost < candidates[j].cost
		}
		if candidates[i].keep != candidates[j].keep {
			return candidates[i].keep < candidates[j].keep
		}
		return candidates[i].drop < candidates[j].drop
	})

	remap := make(map[uint32]uint32)
	touched := make(map[uint32]bool)
	collapsed := false

	remaining := len(indices)
	for _, c := range candidates {
		if remaining <= opts.TargetIndexCount {
			break
		}
		if touched[c.keep] || touched[c.drop] {
			continue
		}
		remap[c.drop] = c.keep
		touched[c.keep] = true
		touched[c.drop] = true
		collapsed = true
		// Every collapse removes at least one triangle.
		remaining -= 3
	}

	if !collapsed {
		return indices, false
	}

	resolve := func(v uint32) uint32 {
		if to, ok := remap[v]; ok {
			return to
		}
		return v
	}

	out := make([]uint32, 0, len(indices))
	for i := 0; i+2 < len(indices); i += 3 {
		a := resolve(indices[i])
		b := resolve(indices[i+1])
		c := resolve(indices[i+2])
		if a == b || b == c || c == a {
			continue
		}
		out = append(out, a, b, c)
	}

	if len(out) == len(indices) {
		// Collapses happened but removed no triangle; treat as
		// stagnation to guarantee the loop terminates.
		return indices, false
	}

	return out, true
}
