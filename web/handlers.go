package web

import (
	"bytes"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/mogaika/meshlet_pipeline/scene"
	"github.com/mogaika/meshlet_pipeline/status"
	"github.com/mogaika/meshlet_pipeline/webutils"
)

type primitiveSummary struct {
	Id          int    `json:"id"`
	Name        string `json:"name"`
	Skinned     bool   `json:"skinned"`
	Vertices    int    `json:"vertices"`
	Indices     int    `json:"indices"`
	Meshlets    int    `json:"meshlets"`
	LodLevels   int    `json:"lodLevels"`
	HadNormals  bool   `json:"hadNormals"`
	HadTangents bool   `json:"hadTangents"`
}

func summarize(id int, p *scene.Primitive) primitiveSummary {
	levels := 0
	if n := len(p.Meshlets); n > 0 {
		levels = int(p.Meshlets[n-1].LOD) + 1
	}
	return primitiveSummary{
		Id:          id,
		Name:        p.Name,
		Skinned:     p.IsSkinned,
		Vertices:    p.VertexCount(),
		Indices:     len(p.Indices),
		Meshlets:    len(p.Meshlets),
		LodLevels:   levels,
		HadNormals:  p.HadNormals,
		HadTangents: p.HadTangents,
	}
}

func HandlerAjaxScene(w http.ResponseWriter, r *http.Request) {
	summaries := make([]primitiveSummary, len(ServerScene.Primitives))
	for i, p := range ServerScene.Primitives {
		summaries[i] = summarize(i, p)
	}
	webutils.WriteJson(w, summaries)
}

func requestedPrimitive(r *http.Request) (*scene.Primitive, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return nil, errors.Wrapf(err, "Primitive id is not an integer")
	}
	if id < 0 || id >= len(ServerScene.Primitives) {
		return nil, errors.Errorf("Primitive %d out of range", id)
	}
	return ServerScene.Primitives[id], nil
}

func HandlerAjaxPrimitive(w http.ResponseWriter, r *http.Request) {
	p, err := requestedPrimitive(r)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	webutils.WriteJson(w, summarize(id, p))
}

type meshletSummary struct {
	Lod       uint32 `json:"lod"`
	Vertices  uint32 `json:"vertices"`
	Triangles uint32 `json:"triangles"`
}

func HandlerAjaxPrimitiveMeshlets(w http.ResponseWriter, r *http.Request) {
	p, err := requestedPrimitive(r)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	meshlets := make([]meshletSummary, len(p.Meshlets))
	for i := range p.Meshlets {
		m := &p.Meshlets[i]
		meshlets[i] = meshletSummary{
			Lod:       m.LOD,
			Vertices:  m.VertexCount,
			Triangles: m.TriangleCount(),
		}
	}
	webutils.WriteJson(w, meshlets)
}

func HandlerDownloadScene(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := scene.Encode(ServerScene, &buf); err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, &buf, "scene.glb")
}

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func HandlerWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[web] ws upgrade error: %v", err)
		return
	}
	status.Subscribe(conn)
}
