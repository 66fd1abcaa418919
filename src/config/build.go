package config

// BuildConfig holds the buildx invocation settings shared by both stages.
type BuildConfig struct {
	Context    string            `yaml:"context"`
	Dockerfile string            `yaml:"dockerfile"`
	Target     string            `yaml:"target"`
	Platforms  []string          `yaml:"platforms"`
	BuildArgs  map[string]string `yaml:"build_args"`
}

// DefaultBuildConfig returns sensible defaults for buildx invocations.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		Context:   ".",
		BuildArgs: map[string]string{},
	}
}
