package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/meshlet_pipeline/utils"
)

// Load parses a glTF / GLB file and extracts every triangle primitive
// into the pipeline's vertex model. Attribute provenance is recorded so
// later stages know what must be synthesized.
func Load(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open scene %q", path)
	}
	return FromDocument(doc)
}

// FromDocument wraps an already-parsed document.
func FromDocument(doc *gltf.Document) (*Scene, error) {
	s := &Scene{Doc: doc}

	var nameGen utils.RandomNameGenerator

	for iMesh, mesh := range doc.Meshes {
		for iPrim, prim := range mesh.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}

			p, err := loadPrimitive(doc, prim)
			if err != nil {
				return nil, errors.Wrapf(err, "Failed to load mesh %d primitive %d", iMesh, iPrim)
			}

			p.meshIndex = iMesh
			p.primIndex = iPrim
			if p.Name = mesh.Name; p.Name == "" {
				p.Name = nameGen.RandomName()
			}

			s.Primitives = append(s.Primitives, p)
		}
	}

	return s, nil
}

func loadPrimitive(doc *gltf.Document, prim *gltf.Primitive) (*Primitive, error) {
	posIndex, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, errors.Errorf("Primitive without POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIndex], nil)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read positions")
	}

	p := &Primitive{}

	var normals [][3]float32
	var tangents [][4]float32
	var uvs [][2]float32
	var colors [][4]uint8
	var joints [][4]uint16
	var weights [][4]float32

	if accIndex, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[accIndex], nil); err != nil {
			return nil, errors.Wrap(err, "Failed to read normals")
		}
		p.HadNormals = true
	}
	if accIndex, ok := prim.Attributes[gltf.TANGENT]; ok {
		if tangents, err = modeler.ReadTangent(doc, doc.Accessors[accIndex], nil); err != nil {
			return nil, errors.Wrap(err, "Failed to read tangents")
		}
		p.HadTangents = true
	}
	if accIndex, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[accIndex], nil); err != nil {
			return nil, errors.Wrap(err, "Failed to read texture coords")
		}
		p.HadTexCoords = true
	}
	if accIndex, ok := prim.Attributes[gltf.COLOR_0]; ok {
		if colors, err = modeler.ReadColor(doc, doc.Accessors[accIndex], nil); err != nil {
			return nil, errors.Wrap(err, "Failed to read colors")
		}
	}
	jointsIndex, hasJoints := prim.Attributes[gltf.JOINTS_0]
	weightsIndex, hasWeights := prim.Attributes[gltf.WEIGHTS_0]
	if hasJoints && hasWeights {
		if joints, err = modeler.ReadJoints(doc, doc.Accessors[jointsIndex], nil); err != nil {
			return nil, errors.Wrap(err, "Failed to read joints")
		}
		if weights, err = modeler.ReadWeights(doc, doc.Accessors[weightsIndex], nil); err != nil {
			return nil, errors.Wrap(err, "Failed to read weights")
		}
		p.IsSkinned = true
	}

	if prim.Indices != nil {
		if p.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return nil, errors.Wrap(err, "Failed to read indices")
		}
	} else {
		p.Indices = make([]uint32, len(positions))
		for i := range p.Indices {
			p.Indices[i] = uint32(i)
		}
	}
	if len(p.Indices)%3 != 0 {
		return nil, errors.Errorf("Index count %d is not a multiple of 3", len(p.Indices))
	}

	vertexAt := func(i int) Vertex {
		v := Vertex{
			Position: mgl32.Vec3(positions[i]),
			Color:    mgl32.Vec3{1, 1, 1},
		}
		if normals != nil {
			v.Normal = mgl32.Vec3(normals[i])
		}
		if tangents != nil {
			v.Tangent = mgl32.Vec4(tangents[i])
		}
		if uvs != nil {
			v.UV = mgl32.Vec2(uvs[i])
		}
		if colors != nil {
			v.Color = mgl32.Vec3{
				float32(colors[i][0]) / 255.0,
				float32(colors[i][1]) / 255.0,
				float32(colors[i][2]) / 255.0,
			}
		}
		return v
	}

	if p.IsSkinned {
		p.SkinnedVertices = make([]SkinnedVertex, len(positions))
		for i := range positions {
			p.SkinnedVertices[i] = SkinnedVertex{
				Vertex:      vertexAt(i),
				BoneIds:     joints[i],
				BoneWeights: mgl32.Vec4(weights[i]),
			}
		}
	} else {
		p.Vertices = make([]Vertex, len(positions))
		for i := range positions {
			p.Vertices[i] = vertexAt(i)
		}
	}

	return p, nil
}
