package pipeline

import (
	"github.com/mogaika/meshlet_pipeline/logger"
	"github.com/mogaika/meshlet_pipeline/utils"
)

// Rejection of tangent against normal below this in every component
// means the tangent frame is unusable.
const collinearEpsilon = 1e-12

// fixCollinearTangents repairs meshes whose tangents collapsed onto
// their normals, which happens with missing or degenerate UVs. If any
// corner is affected the whole mesh is rebuilt: every triangle gets the
// normalized first edge as tangent with handedness +1.
func fixCollinearTangents(em *expandedMesh, name string) {
	flagged := false
	for i := range em.vertices {
		v := &em.vertices[i].vertex
		rej := utils.Rejection(v.Normal, v.Tangent.Vec3())
		if utils.AllBelow(rej, collinearEpsilon) {
			flagged = true
			break
		}
	}
	if !flagged {
		return
	}

	logger.Warnf("[tangent] %s: collinear tangents detected, regenerating from triangle edges", name)

	for i := 0; i+2 < len(em.vertices); i += 3 {
		v0 := &em.vertices[i].vertex
		v1 := &em.vertices[i+1].vertex

		edge := utils.SafeNormalize(v1.Position.Sub(v0.Position))
		tangent := edge.Vec4(1)

		em.vertices[i].vertex.Tangent = tangent
		em.vertices[i+1].vertex.Tangent = tangent
		em.vertices[i+2].vertex.Tangent = tangent
	}
}
