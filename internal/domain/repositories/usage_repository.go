package repositories

import (
	"context"

	"github.com/depscope/depscope/internal/domain/entities"
)

// UsageRepository finds where a dependency is actually used in project code.
type UsageRepository interface {
	// FindUsages returns import statements, call sites, base classes, and
	// decorators whose resolved module matches depName (case-insensitive,
	// hyphen/underscore equivalent). A file that fails to parse is logged
	// and skipped.
	FindUsages(ctx context.Context, projectPath, depName string) ([]entities.CodeUsage, error)
}
