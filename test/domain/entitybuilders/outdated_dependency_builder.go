//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/depscope/depscope/internal/domain/entities"
)

// OutdatedDependencyBuilder helps create outdated dependencies with a fluent
// interface.
type OutdatedDependencyBuilder struct {
	*testkit.BaseBuilder
	name          string
	currentVer    string
	latestVer     string
	ecosystem     entities.Ecosystem
	manifestPath  string
	homepageURL   string
	repositoryURL string
	changelogURL  string
}

// NewOutdatedDependencyBuilder creates a new builder with sensible defaults.
func NewOutdatedDependencyBuilder() *OutdatedDependencyBuilder {
	return &OutdatedDependencyBuilder{
		BaseBuilder:   testkit.NewBaseBuilder(),
		name:          "requests",
		currentVer:    "2.28.0",
		latestVer:     "2.31.0",
		ecosystem:     entities.EcosystemPython,
		manifestPath:  "requirements.txt",
		repositoryURL: "https://github.com/psf/requests",
	}
}

// WithName sets the dependency name.
func (b *OutdatedDependencyBuilder) WithName(name string) *OutdatedDependencyBuilder {
	b.name = name
	return b
}

// WithCurrentVer sets the current version.
func (b *OutdatedDependencyBuilder) WithCurrentVer(version string) *OutdatedDependencyBuilder {
	b.currentVer = version
	return b
}

// WithLatestVer sets the latest version.
func (b *OutdatedDependencyBuilder) WithLatestVer(version string) *OutdatedDependencyBuilder {
	b.latestVer = version
	return b
}

// WithEcosystem sets the ecosystem.
func (b *OutdatedDependencyBuilder) WithEcosystem(ecosystem entities.Ecosystem) *OutdatedDependencyBuilder {
	b.ecosystem = ecosystem
	return b
}

// WithManifestPath sets the manifest path.
func (b *OutdatedDependencyBuilder) WithManifestPath(path string) *OutdatedDependencyBuilder {
	b.manifestPath = path
	return b
}

// WithHomepageURL sets the homepage URL.
func (b *OutdatedDependencyBuilder) WithHomepageURL(url string) *OutdatedDependencyBuilder {
	b.homepageURL = url
	return b
}

// WithRepositoryURL sets the repository URL.
func (b *OutdatedDependencyBuilder) WithRepositoryURL(url string) *OutdatedDependencyBuilder {
	b.repositoryURL = url
	return b
}

// WithChangelogURL sets the changelog URL.
func (b *OutdatedDependencyBuilder) WithChangelogURL(url string) *OutdatedDependencyBuilder {
	b.changelogURL = url
	return b
}

// Build creates the outdated dependency (satisfies testkit.Builder interface).
func (b *OutdatedDependencyBuilder) Build() interface{} {
	return b.BuildOutdatedDependency()
}

// BuildOutdatedDependency creates the dependency with a concrete return type.
func (b *OutdatedDependencyBuilder) BuildOutdatedDependency() entities.OutdatedDependency {
	return entities.OutdatedDependency{
		Name:           b.name,
		CurrentVersion: b.currentVer,
		LatestVersion:  b.latestVer,
		Ecosystem:      b.ecosystem,
		ManifestPath:   b.manifestPath,
		HomepageURL:    b.homepageURL,
		RepositoryURL:  b.repositoryURL,
		ChangelogURL:   b.changelogURL,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *OutdatedDependencyBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.name = "requests"
	b.currentVer = "2.28.0"
	b.latestVer = "2.31.0"
	b.ecosystem = entities.EcosystemPython
	b.manifestPath = "requirements.txt"
	b.homepageURL = ""
	b.repositoryURL = "https://github.com/psf/requests"
	b.changelogURL = ""
	return b
}

// Clone creates a deep copy of the OutdatedDependencyBuilder.
func (b *OutdatedDependencyBuilder) Clone() testkit.Builder {
	return &OutdatedDependencyBuilder{
		BaseBuilder:   b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		name:          b.name,
		currentVer:    b.currentVer,
		latestVer:     b.latestVer,
		ecosystem:     b.ecosystem,
		manifestPath:  b.manifestPath,
		homepageURL:   b.homepageURL,
		repositoryURL: b.repositoryURL,
		changelogURL:  b.changelogURL,
	}
}
