package manifest

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	logger "github.com/sirupsen/logrus"

	"github.com/depscope/depscope/internal/domain/entities"
	"github.com/depscope/depscope/internal/domain/repositories"
)

// skipDirs are pruned while walking the project tree.
var skipDirs = map[string]bool{
	"node_modules":  true,
	".venv":         true,
	"venv":          true,
	"__pycache__":   true,
	".git":          true,
	".tox":          true,
	".nox":          true,
	".mypy_cache":   true,
	".ruff_cache":   true,
	".pytest_cache": true,
	"dist":          true,
	"build":         true,
	".eggs":         true,
}

var (
	// requirementLine extracts name and version from a requirements.txt line,
	// allowing extras like pkg[extra]==1.0 and taking the first operator's
	// version from compound specifiers.
	requirementLine = regexp.MustCompile(
		`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)` + // package name
			`(\[[^\]]*\])?` + // optional extras
			`\s*(~=|==|>=|<=|!=|>|<)` + // operator
			`\s*([0-9][0-9A-Za-z.*]*)`, // version
	)

	// pep508Spec extracts name and version from a PEP 508 dependency string
	// (pyproject.toml's project.dependencies entries).
	pep508Spec = regexp.MustCompile(
		`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)` +
			`\s*(?:~=|==|>=|<=|!=|>|<)` +
			`\s*([0-9][0-9A-Za-z.*]*)`,
	)

	// npmVersion matches versions like ^4.18.0, ~4.17.21, >=1.0.0, 18.2.0.
	npmVersion = regexp.MustCompile(`^[\^~>=< ]*(\d+\.\d+\.\d+(?:-[A-Za-z0-9.]+)?)`)

	// pipfileVersion pulls a version number out of a Pipfile specifier.
	pipfileVersion = regexp.MustCompile(`(\d+[0-9A-Za-z.*]*)`)
)

// ManifestScannerRepository implements repositories.ScannerRepository by
// walking the project tree and parsing every recognized manifest file.
type ManifestScannerRepository struct{}

// NewManifestScannerRepository creates a new manifest scanner.
func NewManifestScannerRepository() repositories.ScannerRepository {
	return &ManifestScannerRepository{}
}

type manifestParser func(path string) ([]entities.Dependency, error)

func (r *ManifestScannerRepository) parsers() map[string]manifestParser {
	return map[string]manifestParser{
		"requirements.txt": parseRequirementsTxt,
		"pyproject.toml":   parsePyprojectToml,
		"Pipfile":          parsePipfile,
		"package.json":     parsePackageJSON,
	}
}

// ScanProject walks the tree, parses manifests, and deduplicates by
// (lowercased name, current version). One unparseable manifest is logged
// and skipped rather than aborting the scan.
func (r *ManifestScannerRepository) ScanProject(projectPath string) ([]entities.Dependency, error) {
	parsers := r.parsers()
	var all []entities.Dependency

	walkErr := filepath.WalkDir(projectPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != projectPath && (skipDirs[name] || strings.HasPrefix(name, ".") && name != ".") {
				return filepath.SkipDir
			}
			return nil
		}

		parser, ok := parsers[d.Name()]
		if !ok {
			return nil
		}

		deps, parseErr := parser(path)
		if parseErr != nil {
			logger.Warnf("Failed to parse manifest %q: %v (skipping)", path, parseErr)
			return nil
		}
		all = append(all, deps...)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to walk project %q: %w", projectPath, walkErr)
	}

	// Multiple manifests (requirements.txt + Pipfile) often list the same
	// packages; keep the first occurrence of each (name, version) pair.
	seen := make(map[string]bool)
	unique := make([]entities.Dependency, 0, len(all))
	for _, dep := range all {
		key := strings.ToLower(dep.Name) + "|" + dep.CurrentVersion
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, dep)
	}
	return unique, nil
}

func parseRequirementsTxt(path string) ([]entities.Dependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var deps []entities.Dependency
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		// Skip comments, blank lines, and -r/-c includes.
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}

		if m := requirementLine.FindStringSubmatch(line); m != nil {
			deps = append(deps, entities.Dependency{
				Name:           m[1],
				CurrentVersion: m[4],
				Ecosystem:      entities.EcosystemPython,
				ManifestPath:   path,
			})
		}
	}
	return deps, nil
}

type pyprojectFile struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
}

func parsePyprojectToml(path string) ([]entities.Dependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file pyprojectFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	specs := file.Project.Dependencies
	for _, group := range file.Project.OptionalDependencies {
		specs = append(specs, group...)
	}

	var deps []entities.Dependency
	for _, spec := range specs {
		if m := pep508Spec.FindStringSubmatch(strings.TrimSpace(spec)); m != nil {
			deps = append(deps, entities.Dependency{
				Name:           m[1],
				CurrentVersion: m[2],
				Ecosystem:      entities.EcosystemPython,
				ManifestPath:   path,
			})
		}
	}
	return deps, nil
}

type pipfileFile struct {
	Packages    map[string]any `toml:"packages"`
	DevPackages map[string]any `toml:"dev-packages"`
}

func parsePipfile(path string) ([]entities.Dependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file pipfileFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	var deps []entities.Dependency
	for _, section := range []map[string]any{file.Packages, file.DevPackages} {
		for name, rawSpec := range section {
			spec := ""
			switch v := rawSpec.(type) {
			case string:
				spec = v
			case map[string]any:
				if s, ok := v["version"].(string); ok {
					spec = s
				}
			}
			spec = strings.Trim(strings.TrimSpace(spec), `"'`)

			// Skip wildcard / unversioned entries.
			if spec == "" || spec == "*" {
				continue
			}

			if m := pipfileVersion.FindStringSubmatch(spec); m != nil {
				deps = append(deps, entities.Dependency{
					Name:           name,
					CurrentVersion: m[1],
					Ecosystem:      entities.EcosystemPython,
					ManifestPath:   path,
				})
			}
		}
	}
	return deps, nil
}

type packageJSONFile struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func parsePackageJSON(path string) ([]entities.Dependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file packageJSONFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	var deps []entities.Dependency
	for _, section := range []map[string]string{file.Dependencies, file.DevDependencies} {
		for name, spec := range section {
			if m := npmVersion.FindStringSubmatch(spec); m != nil {
				deps = append(deps, entities.Dependency{
					Name:           name,
					CurrentVersion: m[1],
					Ecosystem:      entities.EcosystemNodeJS,
					ManifestPath:   path,
				})
			}
		}
	}
	return deps, nil
}
