package web

import (
	"log"
	"net/http"
	"os"
	"path"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/meshlet_pipeline/scene"
)

var ServerScene *scene.Scene

// StartServer exposes the converted scene for inspection: primitive
// and meshlet statistics as JSON, the conditioned scene as a GLB
// download, and a websocket carrying conversion progress.
func StartServer(addr string, s *scene.Scene, webPath string) error {
	ServerScene = s

	r := mux.NewRouter()
	r.HandleFunc("/json/scene", HandlerAjaxScene)
	r.HandleFunc("/json/primitive/{id}", HandlerAjaxPrimitive)
	r.HandleFunc("/json/primitive/{id}/meshlets", HandlerAjaxPrimitiveMeshlets)
	r.HandleFunc("/download/scene.glb", HandlerDownloadScene)
	r.HandleFunc("/ws", HandlerWebsocket)

	r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(webPath, "data"))))

	h := handlers.RecoveryHandler()(r)
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
