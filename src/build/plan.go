package build

// BuildPlan is the resolved execution plan for one pipeline stage.
type BuildPlan struct {
	Steps []BuildStep
}

// BuildStep is a single buildx invocation.
type BuildStep struct {
	Name       string
	Dockerfile string
	Context    string
	Target     string
	Platforms  []string
	BuildArgs  map[string]string
	Tags       []string // fully qualified image refs
	CacheFrom  string   // buildx cache source (e.g., "type=gha")
	CacheTo    string   // buildx cache export (e.g., "type=gha,mode=max")
	Load       bool     // --load into daemon
	Push       bool     // --push to registries
	Registries []RegistryTarget
}

// RegistryTarget is a resolved registry push destination.
type RegistryTarget struct {
	URL         string   // registry host, e.g. "ghcr.io"
	Path        string   // repository path, e.g. "owner/app"
	Tags        []string // resolved tags (no templates left)
	Credentials string   // env var prefix for auth
	Provider    string   // registry vendor: github, generic
}

// Refs returns the fully qualified image refs for this target.
func (r RegistryTarget) Refs() []string {
	refs := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		refs = append(refs, QualifyRef(r.URL, r.Path, t))
	}
	return refs
}

// IsMultiPlatform reports whether a step targets more than one platform.
// Multi-platform images cannot be loaded into the local daemon.
func IsMultiPlatform(step BuildStep) bool {
	return len(step.Platforms) > 1
}
