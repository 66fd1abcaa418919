package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".stevedore.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_ExplicitMissingFileErrors(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope", ".stevedore.yml"))
	if err == nil {
		t.Fatalf("explicit missing path should error, got config %+v", cfg)
	}
}

func TestLoad_DefaultFileAbsentReturnsDefaults(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Registries) != 1 || cfg.Registries[0].URL != "ghcr.io" {
		t.Errorf("expected default registries, got %+v", cfg.Registries)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := defaults()

	if got := cfg.Gate.Events; len(got) != 1 || got[0] != "push" {
		t.Errorf("default gate events = %v, want [push]", got)
	}
	if got := cfg.Gate.Branches; len(got) != 1 || got[0] != "^main$" {
		t.Errorf("default gate branches = %v, want [^main$]", got)
	}
	if len(cfg.Registries) != 1 || cfg.Registries[0].URL != "ghcr.io" {
		t.Errorf("default registries = %+v, want single ghcr.io entry", cfg.Registries)
	}
	if tags := cfg.Registries[0].Tags; len(tags) != 2 || tags[0] != "latest" || tags[1] != "{sha}" {
		t.Errorf("default tags = %v, want [latest {sha}]", tags)
	}
	if !cfg.Scan.SecretsEnabled() {
		t.Error("secrets gate should default to enabled")
	}
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := writeConfig(t, `
image: myapp
build:
  dockerfile: docker/Dockerfile
  platforms: [linux/amd64, linux/arm64]
cache:
  mode: registry
  ref: ghcr.io/owner/myapp:buildcache
gate:
  events: [push]
  branches: ["^main$", "^release/.*"]
registries:
  - url: ghcr.io
    path: owner/myapp
    tags: ["latest", "{sha}", "{version}"]
    credentials: GHCR
scan:
  secrets: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Image != "myapp" {
		t.Errorf("image = %q, want myapp", cfg.Image)
	}
	if cfg.Build.Dockerfile != "docker/Dockerfile" {
		t.Errorf("dockerfile = %q", cfg.Build.Dockerfile)
	}
	if cfg.Cache.Mode != CacheRegistry || cfg.Cache.Ref == "" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if len(cfg.Gate.Branches) != 2 {
		t.Errorf("gate branches = %v", cfg.Gate.Branches)
	}
	if cfg.Scan.SecretsEnabled() {
		t.Error("secrets gate should be disabled by config")
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("valid config produced errors: %v", errs)
	}
}

func TestValidate_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown cache mode", func(c *Config) { c.Cache.Mode = "s3" }},
		{"registry cache without ref", func(c *Config) { c.Cache.Mode = CacheRegistry }},
		{"empty registry url", func(c *Config) { c.Registries[0].URL = "" }},
		{"registry without tags", func(c *Config) { c.Registries[0].Tags = nil }},
		{"tag with whitespace", func(c *Config) { c.Registries[0].Tags = []string{"la test"} }},
		{"tag with unclosed brace", func(c *Config) { c.Registries[0].Tags = []string{"{sha"} }},
		{"tag with nested braces", func(c *Config) { c.Registries[0].Tags = []string{"{{sha}}"} }},
		{"bad credentials prefix", func(c *Config) { c.Registries[0].Credentials = "9GHCR" }},
		{"bad gate pattern", func(c *Config) { c.Gate.Branches = []string{"^(main$"} }},
		{"uppercase image path", func(c *Config) { c.Registries[0].Path = "Owner/App" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			if errs := cfg.Validate(); len(errs) == 0 {
				t.Error("expected validation error, got none")
			}
		})
	}
}

func TestValidate_AllowsTemplatedPaths(t *testing.T) {
	cfg := defaults()
	cfg.Registries[0].Path = "{repo}"
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("templated path should validate: %v", errs)
	}
}
