package config

// RegistryConfig defines a registry push target.
type RegistryConfig struct {
	// URL is the registry host (e.g., "ghcr.io").
	URL string `yaml:"url"`

	// Path is the repository path below the host. The {repo} template
	// resolves to "owner/name" from the trigger context.
	Path string `yaml:"path"`

	// Tags are tag templates resolved against the trigger context:
	// latest, {sha}, {sha:7}, {branch}, {version}, {major}, {minor}, {patch}.
	Tags []string `yaml:"tags"`

	// Credentials is the env var prefix for auth (e.g., "GHCR" →
	// GHCR_USER/GHCR_TOKEN). Empty falls back to the ambient CI identity
	// (GITHUB_ACTOR/GITHUB_TOKEN).
	Credentials string `yaml:"credentials"`

	// Provider is the registry vendor: github, generic. Empty = auto-detect
	// from URL.
	Provider string `yaml:"provider"`
}

// DefaultRegistries publishes to GHCR under the triggering repository with
// a floating latest tag and an immutable commit-sha tag.
func DefaultRegistries() []RegistryConfig {
	return []RegistryConfig{
		{
			URL:  "ghcr.io",
			Path: "{repo}",
			Tags: []string{"latest", "{sha}"},
		},
	}
}
