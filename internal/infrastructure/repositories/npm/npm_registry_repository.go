package npm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"github.com/depscope/depscope/internal/domain/entities"
	"github.com/depscope/depscope/internal/domain/repositories"
)

const (
	defaultBaseURL = "https://registry.npmjs.org"

	// registryTimeout bounds each registry HTTP attempt.
	registryTimeout = 30 * time.Second
)

// NPMRegistryRepository queries the npm registry for package metadata.
type NPMRegistryRepository struct {
	client  *http.Client
	baseURL string
}

// NewNPMRegistryRepository creates an npm registry client with retrying HTTP.
func NewNPMRegistryRepository() repositories.RegistryRepository {
	retry := retryablehttp.NewClient()
	retry.RetryMax = 3
	retry.Logger = nil
	retry.HTTPClient.Timeout = registryTimeout
	return &NPMRegistryRepository{
		client:  retry.StandardClient(),
		baseURL: defaultBaseURL,
	}
}

func (r *NPMRegistryRepository) Name() string {
	return "npm"
}

func (r *NPMRegistryRepository) Matches(ecosystem entities.Ecosystem) bool {
	return ecosystem == entities.EcosystemNodeJS
}

type npmResponse struct {
	DistTags   map[string]string `json:"dist-tags"`
	Homepage   string            `json:"homepage"`
	Repository struct {
		URL string `json:"url"`
	} `json:"repository"`
}

// Query fetches package metadata from the registry document. npm has no
// structured changelog field, so ChangelogURL stays empty and acquisition
// falls through to the repository-based strategies.
func (r *NPMRegistryRepository) Query(ctx context.Context, name string) (entities.RegistryInfo, error) {
	url := fmt.Sprintf("%s/%s", r.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return entities.RegistryInfo{}, fmt.Errorf("failed to build npm request for %q: %w", name, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return entities.RegistryInfo{}, fmt.Errorf("failed to query npm for %q: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return entities.RegistryInfo{}, fmt.Errorf("npm returned status %d for %q", resp.StatusCode, name)
	}

	var payload npmResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return entities.RegistryInfo{}, fmt.Errorf("failed to decode npm response for %q: %w", name, err)
	}

	latest := payload.DistTags["latest"]
	if latest == "" {
		return entities.RegistryInfo{}, fmt.Errorf("npm document for %q has no latest dist-tag", name)
	}

	return entities.RegistryInfo{
		Name:          name,
		LatestVersion: latest,
		HomepageURL:   payload.Homepage,
		RepositoryURL: normalizeRepositoryURL(payload.Repository.URL),
	}, nil
}

// normalizeRepositoryURL converts npm's git+https://..../repo.git style URLs
// into a plain browsable HTTPS URL.
func normalizeRepositoryURL(url string) string {
	url = strings.TrimPrefix(url, "git+")
	url = strings.TrimSuffix(url, ".git")
	if strings.HasPrefix(url, "git://") {
		url = "https://" + strings.TrimPrefix(url, "git://")
	}
	if strings.HasPrefix(url, "ssh://git@") {
		url = "https://" + strings.TrimPrefix(url, "ssh://git@")
	}
	return url
}
