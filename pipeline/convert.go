package pipeline

import (
	"github.com/mogaika/meshlet_pipeline/logger"
	"github.com/mogaika/meshlet_pipeline/scene"
	"github.com/mogaika/meshlet_pipeline/status"
)

type ErrorCode int

const (
	Success ErrorCode = iota
	LoadError
	WriteError
)

type ConversionResult struct {
	Code    ErrorCode
	Message string
}

func (r ConversionResult) Ok() bool {
	return r.Code == Success
}

// Convert loads a scene, conditions every primitive and writes the
// result. Load and write failures surface through the result; the
// pipeline itself recovers from geometric anomalies internally.
func Convert(inPath, outPath string, workers int) (*scene.Scene, ConversionResult) {
	status.Loading(inPath)
	s, err := scene.Load(inPath)
	if err != nil {
		status.Failed("load", err.Error())
		return nil, ConversionResult{Code: LoadError, Message: err.Error()}
	}

	logger.Infof("[convert] %s: %d triangle primitives", inPath, len(s.Primitives))
	ProcessScene(s, workers)

	status.Writing(outPath)
	if err := scene.Save(s, outPath); err != nil {
		status.Failed("write", err.Error())
		return s, ConversionResult{Code: WriteError, Message: err.Error()}
	}

	return s, ConversionResult{Code: Success}
}
