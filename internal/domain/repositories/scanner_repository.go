package repositories

import (
	"github.com/depscope/depscope/internal/domain/entities"
)

// ScannerRepository walks a project tree and parses every recognized
// manifest file into dependency records.
type ScannerRepository interface {
	// ScanProject returns all declared dependencies, deduplicated by
	// (lowercased name, current version). Files that fail to parse are
	// logged and skipped; scanning never aborts on a single bad manifest.
	ScanProject(projectPath string) ([]entities.Dependency, error)
}
