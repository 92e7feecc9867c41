package repositories

import (
	"github.com/depscope/depscope/internal/domain/entities"
	domainRepos "github.com/depscope/depscope/internal/domain/repositories"
)

// RegistryLookup manages all registered package-registry clients.
type RegistryLookup struct {
	registries []domainRepos.RegistryRepository
}

// NewRegistryLookup creates an empty registry lookup.
func NewRegistryLookup() *RegistryLookup {
	return &RegistryLookup{}
}

// Register adds a registry client.
func (r *RegistryLookup) Register(reg domainRepos.RegistryRepository) {
	r.registries = append(r.registries, reg)
}

// For returns the registry client serving the given ecosystem, or nil when
// no registered client matches.
func (r *RegistryLookup) For(ecosystem entities.Ecosystem) domainRepos.RegistryRepository {
	for _, reg := range r.registries {
		if reg.Matches(ecosystem) {
			return reg
		}
	}
	return nil
}

// Names returns the list of registered registry names.
func (r *RegistryLookup) Names() []string {
	names := make([]string, 0, len(r.registries))
	for _, reg := range r.registries {
		names = append(names, reg.Name())
	}
	return names
}
