package simplify

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// planarGrid builds a (w+1)x(h+1) vertex grid in the z=0 plane with
// two triangles per cell.
func planarGrid(w, h int) ([]uint32, []mgl32.Vec3) {
	positions := make([]mgl32.Vec3, 0, (w+1)*(h+1))
	for y := 0; y <= h; y++ {
		for x := 0; x <= w; x++ {
			positions = append(positions, mgl32.Vec3{float32(x), float32(y), 0})
		}
	}
	indices := make([]uint32, 0, w*h*6)
	stride := uint32(w + 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint32(y)*stride + uint32(x)
			indices = append(indices,
				v, v+1, v+stride,
				v+1, v+stride+1, v+stride)
		}
	}
	return indices, positions
}

func borderVertices(w, h int) map[uint32]bool {
	border := make(map[uint32]bool)
	stride := w + 1
	for y := 0; y <= h; y++ {
		for x := 0; x <= w; x++ {
			if x == 0 || y == 0 || x == w || y == h {
				border[uint32(y*stride+x)] = true
			}
		}
	}
	return border
}

func TestSimplifyReducesPlanarGrid(t *testing.T) {
	indices, positions := planarGrid(8, 8)

	out := Simplify(indices, positions, Options{
		TargetIndexCount: len(indices) / 2,
		TargetError:      0.01,
		LockBorder:       true,
	})

	if len(out)%3 != 0 {
		t.Fatalf("output has %d indices, not divisible by 3", len(out))
	}
	if len(out) >= len(indices) {
		t.Fatalf("coplanar grid did not shrink: %d -> %d indices", len(indices), len(out))
	}
}

func TestSimplifyLockBorder(t *testing.T) {
	const w, h = 6, 6
	indices, positions := planarGrid(w, h)
	border := borderVertices(w, h)

	out := Simplify(indices, positions, Options{
		TargetIndexCount: 6,
		TargetError:      0.5,
		LockBorder:       true,
	})

	// Every border vertex must still be referenced: collapses may only
	// consume the interior.
	used := make(map[uint32]bool)
	for _, index := range out {
		used[index] = true
	}
	for v := range border {
		if !used[v] {
			t.Errorf("border vertex %d was collapsed away", v)
		}
	}
}

func TestSimplifyStagnation(t *testing.T) {
	// A single triangle has only border edges; with locking on,
	// nothing can collapse and the input must come back unchanged.
	indices := []uint32{0, 1, 2}
	positions := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}

	out := Simplify(indices, positions, Options{
		TargetIndexCount: 0,
		TargetError:      0.9,
		LockBorder:       true,
	})

	if len(out) != len(indices) {
		t.Fatalf("locked triangle changed size: %d -> %d", len(indices), len(out))
	}
	for i := range out {
		if out[i] != indices[i] {
			t.Fatalf("locked triangle changed contents at %d", i)
		}
	}
}

func TestSimplifyErrorBudget(t *testing.T) {
	// A sharp pyramid apex is expensive to remove; a tiny error budget
	// must keep it.
	positions := []mgl32.Vec3{
		{0, 0, 0}, {2, 0, 0}, {2, 2, 0}, {0, 2, 0},
		{1, 1, 5},
	}
	indices := []uint32{
		0, 1, 4,
		1, 2, 4,
		2, 3, 4,
		3, 0, 4,
	}

	out := Simplify(indices, positions, Options{
		TargetIndexCount: 3,
		TargetError:      0.001,
		LockBorder:       false,
	})

	apexUsed := false
	for _, index := range out {
		if index == 4 {
			apexUsed = true
		}
	}
	if !apexUsed {
		t.Error("apex removed despite tight error budget")
	}
}

func TestSimplifyAlreadyAtTarget(t *testing.T) {
	indices := []uint32{0, 1, 2}
	positions := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}

	out := Simplify(indices, positions, Options{TargetIndexCount: 3, TargetError: 0.9})
	if len(out) != 3 {
		t.Fatalf("got %d indices, expected input back", len(out))
	}
}
