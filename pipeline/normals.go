package pipeline

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/meshlet_pipeline/logger"
	"github.com/mogaika/meshlet_pipeline/utils"
)

// Squared edge length below this is treated as a degenerate triangle.
const degenerateEdgeEpsilon = 1e-16

// generateFlatNormals assigns per-corner face normals. Each corner gets
// its own cross product so a single degenerate edge only zeroes the
// corners it touches.
func generateFlatNormals(em *expandedMesh, name string) {
	for i := 0; i+2 < len(em.vertices); i += 3 {
		a := &em.vertices[i].vertex
		b := &em.vertices[i+1].vertex
		c := &em.vertices[i+2].vertex

		ab := b.Position.Sub(a.Position)
		bc := c.Position.Sub(b.Position)
		ac := c.Position.Sub(a.Position)

		if ab.LenSqr() <= degenerateEdgeEpsilon ||
			bc.LenSqr() <= degenerateEdgeEpsilon ||
			ac.LenSqr() <= degenerateEdgeEpsilon {
			logger.Warnf("[normals] %s: degenerate triangle at corner %d", name, i)
		}

		a.Normal = utils.SafeNormalize(ab.Cross(ac))
		b.Normal = utils.SafeNormalize(bc.Cross(mgl32.Vec3{}.Sub(ab)))
		c.Normal = utils.SafeNormalize(ac.Cross(bc))
	}
}
