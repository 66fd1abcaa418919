package detect

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Project is metadata parsed from the project's manifest. Name feeds the
// default image name for repos without a remote; Version feeds the VERSION
// build arg.
type Project struct {
	Name    string
	Version string
	Source  string // manifest the metadata came from
}

// pyproject models the subset of pyproject.toml we read. Both PEP 621
// ([project]) and poetry ([tool.poetry]) layouts carry name and version.
type pyproject struct {
	Project struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// detectProject reads project metadata from the first manifest found.
func detectProject(rootDir string) *Project {
	if p := fromPyproject(rootDir); p != nil {
		return p
	}
	if p := fromPackageJSON(rootDir); p != nil {
		return p
	}
	if p := fromGoMod(rootDir); p != nil {
		return p
	}
	return nil
}

func fromPyproject(rootDir string) *Project {
	data, err := os.ReadFile(filepath.Join(rootDir, "pyproject.toml"))
	if err != nil {
		return nil
	}

	var py pyproject
	if err := toml.Unmarshal(data, &py); err != nil {
		return nil
	}

	name, version := py.Project.Name, py.Project.Version
	if name == "" {
		name, version = py.Tool.Poetry.Name, py.Tool.Poetry.Version
	}
	if name == "" {
		return nil
	}
	return &Project{Name: sanitizeName(name), Version: version, Source: "pyproject.toml"}
}

func fromPackageJSON(rootDir string) *Project {
	data, err := os.ReadFile(filepath.Join(rootDir, "package.json"))
	if err != nil {
		return nil
	}

	var pkg struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil || pkg.Name == "" {
		return nil
	}

	// Scoped names (@org/app) reduce to the package part.
	name := pkg.Name
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	return &Project{Name: sanitizeName(name), Version: pkg.Version, Source: "package.json"}
}

func fromGoMod(rootDir string) *Project {
	data, err := os.ReadFile(filepath.Join(rootDir, "go.mod"))
	if err != nil {
		return nil
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "module ") {
			continue
		}
		module := strings.TrimSpace(strings.TrimPrefix(line, "module "))
		if idx := strings.LastIndexByte(module, '/'); idx >= 0 {
			module = module[idx+1:]
		}
		if module == "" {
			return nil
		}
		return &Project{Name: sanitizeName(module), Source: "go.mod"}
	}
	return nil
}

// sanitizeName lowers a project name into an OCI-safe image name segment.
func sanitizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.NewReplacer("_", "-", " ", "-", ".", "-").Replace(name)
	return strings.Trim(name, "-")
}
