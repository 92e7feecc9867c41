package repositories

import (
	"context"

	"github.com/depscope/depscope/internal/domain/entities"
)

// ChangelogRepository acquires raw changelog text for an outdated dependency.
type ChangelogRepository interface {
	// Fetch tries every configured acquisition strategy in order and returns
	// the first usable text. It never returns an error: when all strategies
	// are exhausted it returns empty text plus diagnostic warnings naming
	// the dependency, and callers proceed with a "no changelog" state.
	Fetch(ctx context.Context, dep entities.OutdatedDependency) (text string, warnings []string)
}
