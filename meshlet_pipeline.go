package main

import (
	"flag"
	"log"
	"os"

	"github.com/mogaika/meshlet_pipeline/config"
	"github.com/mogaika/meshlet_pipeline/logger"
	"github.com/mogaika/meshlet_pipeline/pipeline"
	"github.com/mogaika/meshlet_pipeline/utils"
	"github.com/mogaika/meshlet_pipeline/web"
)

func main() {
	var in, out, cfgPath, listen, webPath, logLevel string
	var workers int
	var dump bool
	flag.StringVar(&in, "in", "", "Input scene file (gltf/glb)")
	flag.StringVar(&out, "out", "", "Output scene file (gltf/glb)")
	flag.StringVar(&cfgPath, "cfg", "", "Path to yaml config file")
	flag.StringVar(&listen, "listen", "", "Address of preview server, empty to disable")
	flag.StringVar(&webPath, "web", "", "Path to preview server static files")
	flag.StringVar(&logLevel, "loglevel", "", "Log level override (debug, info, warn, error)")
	flag.IntVar(&workers, "workers", 0, "Primitive worker count override, 0 for config/auto")
	flag.BoolVar(&dump, "dump", false, "Spew-dump processed primitives")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if listen != "" {
		cfg.Listen = listen
	}
	if webPath != "" {
		cfg.WebPath = webPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if workers != 0 {
		cfg.Workers = workers
	}
	if dump {
		cfg.Dump = true
	}

	if in == "" || out == "" {
		flag.PrintDefaults()
		return
	}

	logger.Init(cfg.LogLevel, cfg.LogFile)
	defer logger.Sync()

	s, result := pipeline.Convert(in, out, cfg.Workers)
	if !result.Ok() {
		log.Printf("Conversion failed: %v", result.Message)
		os.Exit(1)
	}

	if cfg.Dump {
		for _, p := range s.Primitives {
			utils.Dump(p)
		}
	}

	if cfg.Listen != "" {
		if err := web.StartServer(cfg.Listen, s, cfg.WebPath); err != nil {
			log.Fatal(err)
		}
	}
}
