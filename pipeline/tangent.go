package pipeline

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/meshlet_pipeline/logger"
	"github.com/mogaika/meshlet_pipeline/utils"
)

// generateTangents derives per-corner tangent frames from positions,
// normals and UVs. Triangles whose UV mapping has no area produce zero
// tangents; those are caught by the collinearity sweep afterwards.
// Returns false if no triangle yielded a usable tangent basis.
func generateTangents(em *expandedMesh, name string) bool {
	anyValid := false

	for i := 0; i+2 < len(em.vertices); i += 3 {
		v0 := &em.vertices[i].vertex
		v1 := &em.vertices[i+1].vertex
		v2 := &em.vertices[i+2].vertex

		e1 := v1.Position.Sub(v0.Position)
		e2 := v2.Position.Sub(v0.Position)

		du1 := v1.UV[0] - v0.UV[0]
		dv1 := v1.UV[1] - v0.UV[1]
		du2 := v2.UV[0] - v0.UV[0]
		dv2 := v2.UV[1] - v0.UV[1]

		denom := du1*dv2 - du2*dv1
		if denom == 0 {
			v0.Tangent = mgl32.Vec4{}
			v1.Tangent = mgl32.Vec4{}
			v2.Tangent = mgl32.Vec4{}
			continue
		}
		r := 1.0 / denom

		t := e1.Mul(dv2 * r).Sub(e2.Mul(dv1 * r))
		b := e2.Mul(du1 * r).Sub(e1.Mul(du2 * r))

		for _, corner := range []*expandedVertex{&em.vertices[i], &em.vertices[i+1], &em.vertices[i+2]} {
			n := corner.vertex.Normal
			// T = normalize(T - N*(N·T))
			rej := utils.Rejection(n, t)
			tn := utils.SafeNormalize(rej)

			w := float32(1)
			if n.Cross(tn).Dot(b) < 0 {
				w = -1
			}
			corner.vertex.Tangent = tn.Vec4(w)
			if tn.LenSqr() > 0 {
				anyValid = true
			}
		}
	}

	if !anyValid {
		logger.Errorf("[tangent] %s: tangent generation failed, no triangle had a usable UV basis", name)
	}
	return anyValid
}
