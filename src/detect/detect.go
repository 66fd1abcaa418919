// Package detect inspects the working tree for build inputs: Dockerfiles,
// project language, and project metadata usable as image name and version
// build args.
package detect

import (
	"fmt"
	"os"
	"path/filepath"
)

// Detection holds everything discovered about a repo's build inputs.
type Detection struct {
	RootDir     string   // absolute path to repo root
	Dockerfiles []string // relative paths from repo root
	Language    string   // "go", "rust", "node", "python", ""
	Lockfiles   []string // relative paths: go.mod, pyproject.toml, etc.
	Project     *Project // parsed project metadata, nil when none found
}

// languageIndicators maps lockfile names to detected language.
var languageIndicators = map[string]string{
	"go.mod":            "go",
	"go.sum":            "go",
	"Cargo.toml":        "rust",
	"Cargo.lock":        "rust",
	"package.json":      "node",
	"package-lock.json": "node",
	"yarn.lock":         "node",
	"pnpm-lock.yaml":    "node",
	"requirements.txt":  "python",
	"pyproject.toml":    "python",
	"poetry.lock":       "python",
	"Pipfile":           "python",
	"Gemfile":           "ruby",
	"composer.json":     "php",
}

// dockerfileNames are filenames recognized as Dockerfiles.
var dockerfileNames = []string{
	"Dockerfile",
	"Dockerfile.dev",
	"Dockerfile.production",
	"Dockerfile.build",
}

// dockerfileDirs are directories searched for Dockerfiles.
var dockerfileDirs = []string{
	".",
	"build",
	"docker",
}

// Repo inspects a directory and returns build-relevant information.
func Repo(rootDir string) (*Detection, error) {
	det := &Detection{RootDir: rootDir}

	for _, dir := range dockerfileDirs {
		for _, name := range dockerfileNames {
			path := filepath.Join(rootDir, dir, name)
			if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
				rel, _ := filepath.Rel(rootDir, path)
				det.Dockerfiles = append(det.Dockerfiles, rel)
			}
		}
		pattern := filepath.Join(rootDir, dir, "*.dockerfile")
		matches, _ := filepath.Glob(pattern)
		for _, match := range matches {
			rel, _ := filepath.Rel(rootDir, match)
			det.Dockerfiles = append(det.Dockerfiles, rel)
		}
	}

	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return det, nil // non-fatal
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if lang, ok := languageIndicators[name]; ok {
			det.Lockfiles = append(det.Lockfiles, name)
			if det.Language == "" {
				det.Language = lang
			}
		}
	}

	det.Project = detectProject(rootDir)

	return det, nil
}

// PrimaryDockerfile returns the Dockerfile to build, or an error when the
// tree has none.
func (d *Detection) PrimaryDockerfile() (string, error) {
	if len(d.Dockerfiles) == 0 {
		return "", fmt.Errorf("no Dockerfile found under %s", d.RootDir)
	}
	return d.Dockerfiles[0], nil
}
