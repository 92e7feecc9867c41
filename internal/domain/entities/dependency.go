package entities

// Ecosystem identifies the package ecosystem a dependency belongs to.
type Ecosystem string

const (
	EcosystemPython Ecosystem = "python"
	EcosystemNodeJS Ecosystem = "nodejs"
)

// Dependency represents a versioned dependency declared in a manifest file.
type Dependency struct {
	Name           string    // Package name as declared
	CurrentVersion string    // Currently pinned version
	Ecosystem      Ecosystem // Package ecosystem (python, nodejs)
	ManifestPath   string    // Manifest file where this dependency was found
}

// RegistryInfo is the latest-version metadata a package registry reports.
type RegistryInfo struct {
	Name          string
	LatestVersion string
	HomepageURL   string
	RepositoryURL string
	ChangelogURL  string
}

// OutdatedDependency is a dependency whose registry latest version is
// strictly newer than the declared one, carrying forward the registry's
// URL metadata for changelog acquisition.
type OutdatedDependency struct {
	Name           string
	CurrentVersion string
	LatestVersion  string
	Ecosystem      Ecosystem
	ManifestPath   string
	HomepageURL    string
	RepositoryURL  string
	ChangelogURL   string
}
