package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.LogLevel != "info" {
		t.Errorf("default log level %q, expected info", cfg.LogLevel)
	}
	if cfg.Workers <= 0 {
		t.Errorf("default worker count %d, expected positive", cfg.Workers)
	}
	if cfg.WebPath != "web" {
		t.Errorf("default web path %q, expected web", cfg.WebPath)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != *Default() {
		t.Errorf("empty path returned %+v, expected defaults", cfg)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "log_level: debug\nworkers: 3\nlisten: 127.0.0.1:8080\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" || cfg.Workers != 3 || cfg.Listen != "127.0.0.1:8080" {
		t.Errorf("got %+v", cfg)
	}
	// Keys absent from the file keep their defaults.
	if cfg.WebPath != "web" {
		t.Errorf("web path %q, expected default", cfg.WebPath)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("workers: [not a number\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed yaml accepted")
	}
}
