package scene

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func testDocument() *gltf.Document {
	doc := gltf.NewDocument()

	triangle := &gltf.Primitive{
		Mode: gltf.PrimitiveTriangles,
		Attributes: map[string]uint32{
			gltf.POSITION: modeler.WritePosition(doc, [][3]float32{
				{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
			}),
			gltf.NORMAL: modeler.WriteNormal(doc, [][3]float32{
				{0, 0, 1}, {0, 0, 1}, {0, 0, 1},
			}),
			gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, [][2]float32{
				{0, 0}, {1, 0}, {0, 1},
			}),
		},
		Indices: gltf.Index(modeler.WriteIndices(doc, []uint32{0, 1, 2})),
	}

	skinned := &gltf.Primitive{
		Mode: gltf.PrimitiveTriangles,
		Attributes: map[string]uint32{
			gltf.POSITION: modeler.WritePosition(doc, [][3]float32{
				{0, 0, 0}, {1, 0, 0}, {0, 0, 1},
			}),
			gltf.JOINTS_0: modeler.WriteJoints(doc, [][4]uint16{
				{0, 1, 0, 0}, {1, 0, 0, 0}, {2, 3, 0, 0},
			}),
			gltf.WEIGHTS_0: modeler.WriteWeights(doc, [][4]float32{
				{0.5, 0.5, 0, 0}, {1, 0, 0, 0}, {0.25, 0.75, 0, 0},
			}),
		},
		Indices: gltf.Index(modeler.WriteIndices(doc, []uint32{0, 1, 2})),
	}

	points := &gltf.Primitive{
		Mode: gltf.PrimitivePoints,
		Attributes: map[string]uint32{
			gltf.POSITION: modeler.WritePosition(doc, [][3]float32{{0, 0, 0}}),
		},
	}

	doc.Meshes = []*gltf.Mesh{
		{Name: "triangle", Primitives: []*gltf.Primitive{triangle, points}},
		{Primitives: []*gltf.Primitive{skinned}},
	}
	return doc
}

func TestFromDocument(t *testing.T) {
	s, err := FromDocument(testDocument())
	if err != nil {
		t.Fatal(err)
	}

	// The points primitive is skipped.
	if len(s.Primitives) != 2 {
		t.Fatalf("got %d primitives, expected 2", len(s.Primitives))
	}

	p := s.Primitives[0]
	if p.Name != "triangle" {
		t.Errorf("got name %q, expected mesh name", p.Name)
	}
	if !p.HadNormals || p.HadTangents || !p.HadTexCoords {
		t.Errorf("attribute provenance normals=%v tangents=%v uvs=%v, expected true/false/true",
			p.HadNormals, p.HadTangents, p.HadTexCoords)
	}
	if p.IsSkinned || p.VertexCount() != 3 || len(p.Indices) != 3 {
		t.Fatalf("got skinned=%v %d vertices %d indices", p.IsSkinned, p.VertexCount(), len(p.Indices))
	}
	for i, v := range p.Vertices {
		// No COLOR_0 defaults to white.
		if v.Color != (mgl32.Vec3{1, 1, 1}) {
			t.Errorf("vertex %d color %v, expected white", i, v.Color)
		}
	}

	sp := s.Primitives[1]
	if sp.Name == "" {
		t.Error("unnamed mesh got no generated name")
	}
	if !sp.IsSkinned || len(sp.SkinnedVertices) != 3 {
		t.Fatalf("got skinned=%v with %d vertices", sp.IsSkinned, len(sp.SkinnedVertices))
	}
	if sp.SkinnedVertices[2].BoneIds != [4]uint16{2, 3, 0, 0} {
		t.Errorf("vertex 2 joints %v", sp.SkinnedVertices[2].BoneIds)
	}
	if sp.SkinnedVertices[2].BoneWeights[1] != 0.75 {
		t.Errorf("vertex 2 weights %v", sp.SkinnedVertices[2].BoneWeights)
	}
}

func TestFromDocumentSynthesizesIndices(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Meshes = []*gltf.Mesh{{
		Name: "soup",
		Primitives: []*gltf.Primitive{{
			Mode: gltf.PrimitiveTriangles,
			Attributes: map[string]uint32{
				gltf.POSITION: modeler.WritePosition(doc, [][3]float32{
					{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
					{1, 0, 0}, {1, 1, 0}, {0, 1, 0},
				}),
			},
		}},
	}}

	s, err := FromDocument(doc)
	if err != nil {
		t.Fatal(err)
	}
	p := s.Primitives[0]
	for i, index := range p.Indices {
		if int(index) != i {
			t.Fatalf("index %d is %d, expected identity", i, index)
		}
	}
}

func TestFromDocumentRejectsBadIndexCount(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Meshes = []*gltf.Mesh{{
		Primitives: []*gltf.Primitive{{
			Mode: gltf.PrimitiveTriangles,
			Attributes: map[string]uint32{
				gltf.POSITION: modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}}),
			},
		}},
	}}

	if _, err := FromDocument(doc); err == nil {
		t.Error("vertex count not divisible by 3 accepted without indices")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	s, err := FromDocument(testDocument())
	if err != nil {
		t.Fatal(err)
	}

	// Pretend the pipeline ran: one trivial meshlet on the triangle.
	p := s.Primitives[0]
	p.Meshlets = []Meshlet{{VertexCount: 3, IndexCount: 3}}
	p.MeshletVertexIndices = []uint32{0, 1, 2}
	p.MeshletIndices = []uint8{0, 1, 2, 0}

	if err := writePrimitives(s); err != nil {
		t.Fatal(err)
	}

	reloaded, err := FromDocument(s.Doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(reloaded.Primitives) != 2 {
		t.Fatalf("got %d primitives after rewrite, expected 2", len(reloaded.Primitives))
	}

	rp := reloaded.Primitives[0]
	if rp.VertexCount() != p.VertexCount() || len(rp.Indices) != len(p.Indices) {
		t.Fatalf("round trip changed size: %d/%d vertices, %d/%d indices",
			rp.VertexCount(), p.VertexCount(), len(rp.Indices), len(p.Indices))
	}
	// The writer always emits every attribute.
	if !rp.HadNormals || !rp.HadTangents || !rp.HadTexCoords {
		t.Error("rewritten primitive is missing attributes")
	}
	for i := range rp.Vertices {
		if rp.Vertices[i].Position != p.Vertices[i].Position {
			t.Errorf("vertex %d position %v, expected %v", i, rp.Vertices[i].Position, p.Vertices[i].Position)
		}
		if rp.Vertices[i].Color != p.Vertices[i].Color {
			t.Errorf("vertex %d color %v, expected %v", i, rp.Vertices[i].Color, p.Vertices[i].Color)
		}
	}

	rs := reloaded.Primitives[1]
	if !rs.IsSkinned {
		t.Fatal("skinned primitive lost its skin on round trip")
	}
	for i := range rs.SkinnedVertices {
		if rs.SkinnedVertices[i].BoneIds != s.Primitives[1].SkinnedVertices[i].BoneIds {
			t.Errorf("vertex %d joints changed", i)
		}
	}

	extras, ok := s.Doc.Meshes[0].Primitives[0].Extras.(map[string]interface{})
	if !ok {
		t.Fatal("primitive extras are not a map")
	}
	meshlets, ok := extras["meshlets"].(map[string]interface{})
	if !ok {
		t.Fatal("extras carry no meshlet block")
	}
	if count := meshlets["count"].(uint32); count != 1 {
		t.Errorf("extras record %d meshlets, expected 1", count)
	}
}

func TestEncodeProducesGLB(t *testing.T) {
	s, err := FromDocument(testDocument())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Encode(s, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() < 12 || string(buf.Bytes()[:4]) != "glTF" {
		t.Errorf("stream does not start with a GLB header")
	}
}
