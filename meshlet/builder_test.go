package meshlet

import "testing"

func TestBuildSingleTriangle(t *testing.T) {
	r := Build([]uint32{0, 1, 2}, 3)

	if len(r.Meshlets) != 1 {
		t.Fatalf("got %d meshlets, expected 1", len(r.Meshlets))
	}
	m := r.Meshlets[0]
	if m.VertexCount != 3 || m.TriangleCount != 1 {
		t.Errorf("got %d vertices %d triangles, expected 3/1", m.VertexCount, m.TriangleCount)
	}
	if len(r.Vertices) != 3 {
		t.Errorf("got %d vertex slots, expected 3", len(r.Vertices))
	}
	if len(r.Triangles) != 4 {
		t.Errorf("got %d triangle bytes, expected 4 (3 aligned up)", len(r.Triangles))
	}
}

func TestBuildCoverage(t *testing.T) {
	// A fan around vertex 0 large enough to overflow one meshlet's
	// vertex budget.
	const triangles = 200
	indices := make([]uint32, 0, triangles*3)
	for i := 0; i < triangles; i++ {
		indices = append(indices, 0, uint32(i+1), uint32(i+2))
	}

	r := Build(indices, triangles+2)

	covered := 0
	for _, m := range r.Meshlets {
		if m.VertexCount > MaxVertices {
			t.Errorf("meshlet has %d vertices, max is %d", m.VertexCount, MaxVertices)
		}
		if m.TriangleCount > MaxTriangles {
			t.Errorf("meshlet has %d triangles, max is %d", m.TriangleCount, MaxTriangles)
		}
		if m.TriangleOffset%4 != 0 {
			t.Errorf("triangle offset %d is not 4-byte aligned", m.TriangleOffset)
		}

		for k := uint32(0); k < m.TriangleCount*3; k++ {
			local := uint32(r.Triangles[m.TriangleOffset+k])
			if local >= m.VertexCount {
				t.Fatalf("local index %d out of meshlet vertex range %d", local, m.VertexCount)
			}
		}
		covered += int(m.TriangleCount)
	}
	if covered != triangles {
		t.Errorf("meshlets cover %d triangles, expected %d", covered, triangles)
	}

	// Reconstruct and compare against the source soup.
	got := make([][3]uint32, 0, triangles)
	for _, m := range r.Meshlets {
		for k := uint32(0); k < m.TriangleCount*3; k += 3 {
			got = append(got, [3]uint32{
				r.Vertices[m.VertexOffset+uint32(r.Triangles[m.TriangleOffset+k])],
				r.Vertices[m.VertexOffset+uint32(r.Triangles[m.TriangleOffset+k+1])],
				r.Vertices[m.VertexOffset+uint32(r.Triangles[m.TriangleOffset+k+2])],
			})
		}
	}
	for i := range got {
		want := [3]uint32{indices[i*3], indices[i*3+1], indices[i*3+2]}
		if got[i] != want {
			t.Fatalf("triangle %d reconstructed as %v, expected %v", i, got[i], want)
		}
	}
}

func TestBuildTrimming(t *testing.T) {
	r := Build([]uint32{0, 1, 2, 0, 2, 3}, 4)

	if len(r.Meshlets) != 1 {
		t.Fatalf("got %d meshlets, expected 1", len(r.Meshlets))
	}
	last := r.Meshlets[len(r.Meshlets)-1]
	if uint32(len(r.Vertices)) != last.VertexOffset+last.VertexCount {
		t.Errorf("vertex scratch not trimmed: %d slots for %d used",
			len(r.Vertices), last.VertexOffset+last.VertexCount)
	}
	wantTriangles := last.TriangleOffset + (last.TriangleCount*3+3)&^3
	if uint32(len(r.Triangles)) != wantTriangles {
		t.Errorf("triangle scratch not trimmed: %d bytes for %d used",
			len(r.Triangles), wantTriangles)
	}
}

func TestBuildEmpty(t *testing.T) {
	r := Build(nil, 0)
	if len(r.Meshlets) != 0 {
		t.Errorf("empty input produced %d meshlets", len(r.Meshlets))
	}
}
