package scene

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Save serializes the conditioned scene back to disk. The loaded
// document is mutated in place: only accessors for the processed
// primitives are replaced, so node hierarchy, transforms, materials,
// textures, images, skins, animations and asset metadata (including
// copyright and extras) survive the round trip untouched.
func Save(s *Scene, path string) error {
	if err := writePrimitives(s); err != nil {
		return err
	}
	var err error
	if strings.HasSuffix(strings.ToLower(path), ".glb") {
		err = gltf.SaveBinary(s.Doc, path)
	} else {
		err = gltf.Save(s.Doc, path)
	}
	return errors.Wrapf(err, "Failed to write scene %q", path)
}

// Encode serializes the conditioned scene as GLB to a stream.
func Encode(s *Scene, w io.Writer) error {
	if err := writePrimitives(s); err != nil {
		return err
	}
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return errors.Wrap(encoder.Encode(s.Doc), "Failed to encode scene")
}

func writePrimitives(s *Scene) error {
	for _, p := range s.Primitives {
		if err := writePrimitive(s.Doc, p); err != nil {
			return errors.Wrapf(err, "Failed to write primitive %q", p.Name)
		}
	}
	return nil
}

func writePrimitive(doc *gltf.Document, p *Primitive) error {
	prim := doc.Meshes[p.meshIndex].Primitives[p.primIndex]

	vertexCount := p.VertexCount()
	positions := make([][3]float32, vertexCount)
	normals := make([][3]float32, vertexCount)
	tangents := make([][4]float32, vertexCount)
	uvs := make([][2]float32, vertexCount)
	colors := make([][4]uint8, vertexCount)

	colorByte := func(f float32) uint8 {
		if f <= 0 {
			return 0
		}
		if f >= 1 {
			return 255
		}
		return uint8(f*255.0 + 0.5)
	}

	fill := func(i int, v *Vertex) {
		positions[i] = v.Position
		normals[i] = v.Normal
		tangents[i] = v.Tangent
		uvs[i] = v.UV
		colors[i] = [4]uint8{colorByte(v.Color[0]), colorByte(v.Color[1]), colorByte(v.Color[2]), 255}
	}

	attributes := map[string]uint32{}
	if p.IsSkinned {
		joints := make([][4]uint16, vertexCount)
		weights := make([][4]float32, vertexCount)
		for i := range p.SkinnedVertices {
			sv := &p.SkinnedVertices[i]
			fill(i, &sv.Vertex)
			joints[i] = sv.BoneIds
			weights[i] = sv.BoneWeights
		}
		attributes[gltf.JOINTS_0] = modeler.WriteJoints(doc, joints)
		attributes[gltf.WEIGHTS_0] = modeler.WriteWeights(doc, weights)
	} else {
		for i := range p.Vertices {
			fill(i, &p.Vertices[i])
		}
	}

	attributes[gltf.POSITION] = modeler.WritePosition(doc, positions)
	attributes[gltf.NORMAL] = modeler.WriteNormal(doc, normals)
	attributes[gltf.TANGENT] = modeler.WriteTangent(doc, tangents)
	attributes[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, uvs)
	attributes[gltf.COLOR_0] = modeler.WriteColor(doc, colors)

	indicesAccessor := modeler.WriteIndices(doc, p.Indices)

	prim.Attributes = attributes
	prim.Indices = gltf.Index(indicesAccessor)
	prim.Extras = meshletExtras(doc, p)

	return nil
}

// meshletExtras appends the cluster hierarchy arrays as plain accessors
// and references them from the primitive extras. Records are packed as
// five uint32 per meshlet: vertexOffset, vertexCount, indexOffset,
// indexCount, lod.
func meshletExtras(doc *gltf.Document, p *Primitive) map[string]interface{} {
	records := make([]uint32, 0, len(p.Meshlets)*5)
	for _, m := range p.Meshlets {
		records = append(records, m.VertexOffset, m.VertexCount, m.IndexOffset, m.IndexCount, m.LOD)
	}

	return map[string]interface{}{
		"meshlets": map[string]interface{}{
			"count":         uint32(len(p.Meshlets)),
			"records":       modeler.WriteAccessor(doc, gltf.TargetNone, records),
			"vertexIndices": modeler.WriteAccessor(doc, gltf.TargetNone, p.MeshletVertexIndices),
			"localIndices":  modeler.WriteAccessor(doc, gltf.TargetNone, p.MeshletIndices),
		},
	}
}
