package pipeline

import (
	"fmt"
	"os"
	"strings"

	"github.com/alderglen/stevedore/src/build"
	"github.com/alderglen/stevedore/src/ci"
	"github.com/alderglen/stevedore/src/config"
	"github.com/alderglen/stevedore/src/detect"
	"github.com/alderglen/stevedore/src/registry"
)

// Inputs are the resolved ingredients both stage plans are derived from.
// Each stage re-derives its plan from these rather than sharing step state.
type Inputs struct {
	RootDir    string
	Dockerfile string
	Det        *detect.Detection
	Values     build.TagValues
}

// ResolveInputs runs detection and composes the tag values for planning.
func ResolveInputs(rootDir string, cfg *config.Config, trigger *ci.Context) (*Inputs, error) {
	det, err := detect.Repo(rootDir)
	if err != nil {
		return nil, fmt.Errorf("detection: %w", err)
	}

	dockerfile := cfg.Build.Dockerfile
	if dockerfile == "" {
		dockerfile, err = det.PrimaryDockerfile()
		if err != nil {
			return nil, err
		}
	}

	values := build.TagValues{
		SHA:        trigger.SHA,
		Branch:     trigger.Branch,
		Repository: trigger.Repository,
	}
	// Version templates are optional; a repo without tags still builds.
	if vi, err := build.DetectVersion(rootDir); err == nil {
		values.Version = vi
		if values.SHA == "" {
			values.SHA = vi.SHA
		}
		if values.Branch == "" {
			values.Branch = vi.Branch
		}
	}

	return &Inputs{
		RootDir:    rootDir,
		Dockerfile: dockerfile,
		Det:        det,
		Values:     values,
	}, nil
}

// BuildStagePlan produces the build-stage step: same build as the push
// stage, cache enabled, push forced off. The image artifact is discarded;
// the run exists to prove the build and to warm the layer cache.
func BuildStagePlan(cfg *config.Config, in *Inputs) *build.BuildPlan {
	step := baseStep(cfg, in)
	step.Name = "build"
	step.Tags = []string{localRef(cfg, in)}
	step.Push = false
	step.Load = false

	return &build.BuildPlan{Steps: []build.BuildStep{step}}
}

// PushStagePlan produces one step per configured registry, each with fully
// qualified refs and push enabled.
func PushStagePlan(cfg *config.Config, in *Inputs) (*build.BuildPlan, error) {
	plan := &build.BuildPlan{}

	for _, reg := range cfg.Registries {
		path := build.ResolvePath(reg.Path, in.Values)
		if !resolvedPath(path) {
			return nil, fmt.Errorf("registry path %q did not resolve to a repository (no repository in trigger context)", reg.Path)
		}
		tags := build.ResolveTags(reg.Tags, in.Values)

		provider := reg.Provider
		if provider == "" {
			provider = registry.DetectProvider(reg.URL)
		}

		target := build.RegistryTarget{
			URL:         reg.URL,
			Path:        path,
			Tags:        tags,
			Credentials: reg.Credentials,
			Provider:    provider,
		}

		step := baseStep(cfg, in)
		step.Name = "push " + reg.URL
		step.Tags = target.Refs()
		step.Push = true
		step.Registries = []build.RegistryTarget{target}

		plan.Steps = append(plan.Steps, step)
	}

	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("no registries configured for the push stage")
	}
	return plan, nil
}

// resolvedPath reports whether a registry path resolved to a usable
// repository. Templates expanding against an empty trigger context leave
// empty segments behind, which would qualify into refs like "ghcr.io/:tag".
func resolvedPath(path string) bool {
	if path == "" || strings.Contains(path, "{") {
		return false
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			return false
		}
	}
	return true
}

// baseStep builds the invocation shared by both stages.
func baseStep(cfg *config.Config, in *Inputs) build.BuildStep {
	args := make(map[string]string, len(cfg.Build.BuildArgs))
	for k, v := range cfg.Build.BuildArgs {
		args[k] = v
	}
	if p := in.Det.Project; p != nil && p.Version != "" {
		if _, ok := args["VERSION"]; !ok {
			args["VERSION"] = p.Version
		}
	}

	cacheFrom, cacheTo := cacheFlags(cfg.Cache)

	return build.BuildStep{
		Dockerfile: in.Dockerfile,
		Context:    cfg.Build.Context,
		Target:     cfg.Build.Target,
		Platforms:  cfg.Build.Platforms,
		BuildArgs:  args,
		CacheFrom:  cacheFrom,
		CacheTo:    cacheTo,
	}
}

// cacheFlags resolves the cache config into buildx flags. Mode auto uses
// the gha backend under GitHub Actions and no cache elsewhere.
func cacheFlags(c config.CacheConfig) (from, to string) {
	mode := c.Mode
	if mode == "" || mode == config.CacheAuto {
		if os.Getenv("GITHUB_ACTIONS") == "true" {
			mode = config.CacheGHA
		} else {
			mode = config.CacheOff
		}
	}

	switch mode {
	case config.CacheGHA:
		return "type=gha", "type=gha,mode=max"
	case config.CacheRegistry:
		return "type=registry,ref=" + c.Ref, "type=registry,ref=" + c.Ref + ",mode=max"
	}
	return "", ""
}

// localRef is the unqualified name the build stage tags its throwaway
// image with.
func localRef(cfg *config.Config, in *Inputs) string {
	name := cfg.Image
	if name == "" && in.Values.Repository != "" {
		parts := strings.Split(in.Values.Repository, "/")
		name = strings.ToLower(parts[len(parts)-1])
	}
	if name == "" && in.Det.Project != nil {
		name = in.Det.Project.Name
	}
	if name == "" {
		name = "stevedore-build"
	}

	tag := "dev"
	if in.Values.SHA != "" {
		tag = in.Values.SHA
		if len(tag) > 12 {
			tag = tag[:12]
		}
	}
	return name + ":" + tag
}
