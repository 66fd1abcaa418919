package config

// Cache modes. "auto" resolves to gha under GitHub Actions and off elsewhere.
const (
	CacheAuto     = "auto"
	CacheGHA      = "gha"
	CacheRegistry = "registry"
	CacheOff      = "off"
)

// CacheConfig holds layer cache settings for buildx.
type CacheConfig struct {
	// Mode selects the cache backend: auto, gha, registry, off.
	Mode string `yaml:"mode"`

	// Ref is the cache image reference for mode=registry
	// (e.g., "ghcr.io/owner/app:buildcache").
	Ref string `yaml:"ref"`
}

// DefaultCacheConfig returns the auto-resolving cache config.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{Mode: CacheAuto}
}
