package weaviate

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sync"

	"github.com/google/uuid"
	weaviateclient "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/depscope/depscope/config"
	"github.com/depscope/depscope/internal/domain/repositories"
)

var classNameSanitizer = regexp.MustCompile(`[^A-Za-z0-9]`)

// WeaviateVectorRepository stores embedded changelog sub-chunks in a
// Weaviate class namespaced by the active embedding model, so vectors of
// different dimensionality never share a collection.
type WeaviateVectorRepository struct {
	client    *weaviateclient.Client
	className string

	mu      sync.Mutex
	ensured bool
}

// NewWeaviateVectorRepository connects to the Weaviate instance named by
// DEPSCOPE_VECTOR_STORE_URL.
func NewWeaviateVectorRepository(settings *config.Settings) (repositories.VectorRepository, error) {
	parsed, err := url.Parse(settings.VectorStoreURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vector store URL %q: %w", settings.VectorStoreURL, err)
	}

	scheme := parsed.Scheme
	if scheme == "" {
		scheme = "http"
	}

	client, err := weaviateclient.NewClient(weaviateclient.Config{
		Host:   parsed.Host,
		Scheme: scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store client: %w", err)
	}

	return &WeaviateVectorRepository{
		client:    client,
		className: classNameFor(settings.ActiveEmbeddingModel()),
	}, nil
}

// classNameFor builds a valid Weaviate class name from the embedding model
// identity (class names must start with an uppercase letter).
func classNameFor(embeddingModel string) string {
	return "Changelogs_" + classNameSanitizer.ReplaceAllString(embeddingModel, "_")
}

func (r *WeaviateVectorRepository) ensureClass(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ensured {
		return nil
	}

	exists, err := r.client.Schema().ClassExistenceChecker().WithClassName(r.className).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check class %q: %w", r.className, err)
	}

	if !exists {
		class := &models.Class{
			Class:      r.className,
			Vectorizer: "none",
			Properties: []*models.Property{
				{Name: "depName", DataType: []string{"text"}},
				{Name: "version", DataType: []string{"text"}},
				{Name: "subChunk", DataType: []string{"int"}},
				{Name: "content", DataType: []string{"text"}},
			},
		}
		if err := r.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
			return fmt.Errorf("failed to create class %q: %w", r.className, err)
		}
	}

	r.ensured = true
	return nil
}

// Upsert writes one embedded sub-chunk under a deterministic ID derived from
// (dep, version, index), so re-running an analysis replaces rather than
// duplicates.
func (r *WeaviateVectorRepository) Upsert(
	ctx context.Context,
	depName, version string,
	subChunk int,
	content string,
	vector []float32,
) error {
	if err := r.ensureClass(ctx); err != nil {
		return err
	}

	id := uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%s:%s:%d", depName, version, subChunk))

	err := r.client.Data().Updater().
		WithID(id.String()).
		WithClassName(r.className).
		WithProperties(map[string]any{
			"depName":  depName,
			"version":  version,
			"subChunk": subChunk,
			"content":  content,
		}).
		WithVector(vector).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk %s/%s#%d: %w", depName, version, subChunk, err)
	}
	return nil
}

// Query returns stored chunk contents for depName ranked by similarity.
// limit <= 0 retrieves every stored chunk for the dependency.
func (r *WeaviateVectorRepository) Query(ctx context.Context, depName string, vector []float32, limit int) ([]string, error) {
	if err := r.ensureClass(ctx); err != nil {
		return nil, err
	}

	if limit <= 0 {
		count, err := r.CountFor(ctx, depName)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, nil
		}
		limit = count
	}

	where := filters.Where().
		WithPath([]string{"depName"}).
		WithOperator(filters.Equal).
		WithValueText(depName)

	nearVector := r.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	result, err := r.client.GraphQL().Get().
		WithClassName(r.className).
		WithFields(graphql.Field{Name: "content"}).
		WithWhere(where).
		WithNearVector(nearVector).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks for %q: %w", depName, err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("vector query for %q failed: %s", depName, result.Errors[0].Message)
	}

	get, _ := result.Data["Get"].(map[string]any)
	objects, _ := get[r.className].([]any)

	contents := make([]string, 0, len(objects))
	for _, obj := range objects {
		props, _ := obj.(map[string]any)
		if content, ok := props["content"].(string); ok {
			contents = append(contents, content)
		}
	}
	return contents, nil
}

// CountFor returns how many sub-chunks are stored for depName.
func (r *WeaviateVectorRepository) CountFor(ctx context.Context, depName string) (int, error) {
	if err := r.ensureClass(ctx); err != nil {
		return 0, err
	}

	where := filters.Where().
		WithPath([]string{"depName"}).
		WithOperator(filters.Equal).
		WithValueText(depName)

	result, err := r.client.GraphQL().Aggregate().
		WithClassName(r.className).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks for %q: %w", depName, err)
	}
	if len(result.Errors) > 0 {
		return 0, fmt.Errorf("vector count for %q failed: %s", depName, result.Errors[0].Message)
	}

	aggregate, _ := result.Data["Aggregate"].(map[string]any)
	rows, _ := aggregate[r.className].([]any)
	if len(rows) == 0 {
		return 0, nil
	}
	row, _ := rows[0].(map[string]any)
	meta, _ := row["meta"].(map[string]any)
	count, _ := meta["count"].(float64)
	return int(count), nil
}
