// Package partition implements k-way partitioning of an undirected
// graph in CSR form, minimizing edge cut under a soft balance
// constraint. Parts are grown greedily from low-degree seeds and then
// improved by boundary refinement passes.
package partition

import (
	"container/heap"

	"github.com/pkg/errors"
)

const refinementPasses = 8

// Partition assigns each of the n = len(xadj)-1 vertices to one of
// nparts parts. adjncy[xadj[v]:xadj[v+1]] must list each distinct
// neighbor of v exactly once, with no self-loops. Empty parts are
// permitted in the result.
func Partition(xadj, adjncy []int32, nparts int) ([]int32, error) {
	if len(xadj) < 1 {
		return nil, errors.New("Empty xadj")
	}
	n := len(xadj) - 1
	if nparts <= 0 {
		return nil, errors.Errorf("Invalid part count %d", nparts)
	}
	for v := 0; v < n; v++ {
		if xadj[v] > xadj[v+1] {
			return nil, errors.Errorf("Non-monotonic xadj at vertex %d", v)
		}
	}
	if int(xadj[n]) != len(adjncy) {
		return nil, errors.Errorf("xadj terminates at %d but adjncy has %d entries", xadj[n], len(adjncy))
	}
	for _, u := range adjncy {
		if u < 0 || int(u) >= n {
			return nil, errors.Errorf("Adjacency target %d out of range", u)
		}
	}

	part := make([]int32, n)
	for i := range part {
		part[i] = -1
	}

	// Ceiling target size keeps parts roughly balanced while letting
	// the last part absorb the remainder.
	maxSize := (n + nparts - 1) / nparts
	sizes := make([]int, nparts)

	degree := func(v int32) int32 { return xadj[v+1] - xadj[v] }

	assigned := 0
	for p := 0; p < nparts && assigned < n; p++ {
		seed := int32(-1)
		for v := int32(0); int(v) < n; v++ {
			if part[v] >= 0 {
				continue
			}
			if seed < 0 || degree(v) < degree(seed) {
				seed = v
			}
		}
		if seed < 0 {
			break
		}

		// Grow a connected region around the seed, preferring the
		// frontier vertex with the most neighbors already inside.
		frontier := &vertexHeap{}
		heap.Init(frontier)
		heap.Push(frontier, frontierVertex{v: seed, gain: 0, order: seed})

		for sizes[p] < maxSize && frontier.Len() > 0 {
			fv := heap.Pop(frontier).(frontierVertex)
			if part[fv.v] >= 0 {
				continue
			}
			part[fv.v] = int32(p)
			sizes[p]++
			assigned++

			for _, u := range adjncy[xadj[fv.v]:xadj[fv.v+1]] {
				if part[u] >= 0 {
					continue
				}
				gain := int32(0)
				for _, w := range adjncy[xadj[u]:xadj[u+1]] {
					if part[w] == int32(p) {
						gain++
					}
				}
				heap.Push(frontier, frontierVertex{v: u, gain: gain, order: u})
			}
		}
	}

	// Disconnected leftovers: drop each into the currently smallest
	// part.
	for v := int32(0); int(v) < n; v++ {
		if part[v] >= 0 {
			continue
		}
		best := 0
		for p := 1; p < nparts; p++ {
			if sizes[p] < sizes[best] {
				best = p
			}
		}
		part[v] = int32(best)
		sizes[best]++
	}

	refine(xadj, adjncy, part, sizes, nparts, maxSize)

	return part, nil
}

// refine sweeps boundary vertices, moving each to the neighboring part
// with the largest cut reduction that still has room.
func refine(xadj, adjncy []int32, part []int32, sizes []int, nparts, maxSize int) {
	n := len(part)
	counts := make([]int32, nparts)

	for pass := 0; pass < refinementPasses; pass++ {
		moved := false

		for v := 0; v < n; v++ {
			from := part[v]
			if sizes[from] <= 1 {
				continue
			}

			for p := range counts {
				counts[p] = 0
			}
			for _, u := range adjncy[xadj[v]:xadj[v+1]] {
				counts[part[u]]++
			}

			best := from
			for p := int32(0); int(p) < nparts; p++ {
				if p == from || sizes[p] >= maxSize {
					continue
				}
				if counts[p] > counts[best] || (counts[p] == counts[best] && p < best) {
					best = p
				}
			}

			if best != from && counts[best] > counts[from] {
				part[v] = best
				sizes[from]--
				sizes[best]++
				moved = true
			}
		}

		if !moved {
			break
		}
	}
}

type frontierVertex struct {
	v     int32
	gain  int32
	order int32
}

type vertexHeap []frontierVertex

func (h vertexHeap) Len() int { return len(h) }
func (h vertexHeap) Less(i, j int) bool {
	if h[i].gain != h[j].gain {
		return h[i].gain > h[j].gain
	}
	return h[i].order < h[j].order
}
func (h vertexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *vertexHeap) Push(x interface{}) { *h = append(*h, x.(frontierVertex)) }
func (h *vertexHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
