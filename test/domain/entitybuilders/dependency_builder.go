//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/depscope/depscope/internal/domain/entities"
)

// DependencyBuilder helps create test dependencies with a fluent interface.
type DependencyBuilder struct {
	*testkit.BaseBuilder
	name         string
	currentVer   string
	ecosystem    entities.Ecosystem
	manifestPath string
}

// NewDependencyBuilder creates a new dependency builder with sensible defaults.
func NewDependencyBuilder() *DependencyBuilder {
	return &DependencyBuilder{
		BaseBuilder:  testkit.NewBaseBuilder(),
		name:         "requests",
		currentVer:   "2.28.0",
		ecosystem:    entities.EcosystemPython,
		manifestPath: "requirements.txt",
	}
}

// WithName sets the dependency name.
func (b *DependencyBuilder) WithName(name string) *DependencyBuilder {
	b.name = name
	return b
}

// WithCurrentVer sets the current version.
func (b *DependencyBuilder) WithCurrentVer(version string) *DependencyBuilder {
	b.currentVer = version
	return b
}

// WithEcosystem sets the ecosystem.
func (b *DependencyBuilder) WithEcosystem(ecosystem entities.Ecosystem) *DependencyBuilder {
	b.ecosystem = ecosystem
	return b
}

// WithManifestPath sets the manifest path.
func (b *DependencyBuilder) WithManifestPath(path string) *DependencyBuilder {
	b.manifestPath = path
	return b
}

// Build creates the dependency (satisfies testkit.Builder interface).
func (b *DependencyBuilder) Build() interface{} {
	return b.BuildDependency()
}

// BuildDependency creates the dependency with a concrete return type.
func (b *DependencyBuilder) BuildDependency() entities.Dependency {
	return entities.Dependency{
		Name:           b.name,
		CurrentVersion: b.currentVer,
		Ecosystem:      b.ecosystem,
		ManifestPath:   b.manifestPath,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *DependencyBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.name = "requests"
	b.currentVer = "2.28.0"
	b.ecosystem = entities.EcosystemPython
	b.manifestPath = "requirements.txt"
	return b
}

// Clone creates a deep copy of the DependencyBuilder.
func (b *DependencyBuilder) Clone() testkit.Builder {
	return &DependencyBuilder{
		BaseBuilder:  b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		name:         b.name,
		currentVer:   b.currentVer,
		ecosystem:    b.ecosystem,
		manifestPath: b.manifestPath,
	}
}
