package pypi

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
	defaultBaseURL = "https://pypi.org"

	// registryTimeout bounds each registry HTTP attempt.
	registryTimeout = 30 * time.Second
)

// repoURLKeys are the project_urls keys checked for a source repository,
// in priority order.
var repoURLKeys = []string{"Source", "Source Code", "Repository", "Code", "GitHub"}

// changelogURLKeys are the project_urls keys checked for a changelog,
// in priority order.
var changelogURLKeys = []string{"Changelog", "Changes", "Change Log", "Release Notes", "History", "What's New"}

// PyPIRegistryRepository queries the PyPI JSON API for package metadata.
type PyPIRegistryRepository struct {
	client  *http.Client
	baseURL string
}

// NewPyPIRegistryRepository creates a PyPI registry client with retrying HTTP.
func NewPyPIRegistryRepository() repositories.RegistryRepository {
	retry := retryablehttp.NewClient()
	retry.RetryMax = 3
	retry.Logger = nil
	retry.HTTPClient.Timeout = registryTimeout
	return &PyPIRegistryRepository{
		client:  retry.StandardClient(),
		baseURL: defaultBaseURL,
	}
}

func (r *PyPIRegistryRepository) Name() string {
	return "pypi"
}

func (r *PyPIRegistryRepository) Matches(ecosystem entities.Ecosystem) bool {
	return ecosystem == entities.EcosystemPython
}

type pypiResponse struct {
	Info struct {
		Version     string            `json:"version"`
		HomePage    string            `json:"home_page"`
		ProjectURLs map[string]string `json:"project_urls"`
	} `json:"info"`
}

// Query fetches package metadata and resolves repository and changelog URLs
// from project_urls, falling back to any forge-looking URL for the repository.
func (r *PyPIRegistryRepository) Query(ctx context.Context, name string) (entities.RegistryInfo, error) {
	url := fmt.Sprintf("%s/pypi/%s/json", r.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return entities.RegistryInfo{}, fmt.Errorf("failed to build PyPI request for %q: %w", name, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return entities.RegistryInfo{}, fmt.Errorf("failed to query PyPI for %q: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return entities.RegistryInfo{}, fmt.Errorf("PyPI returned status %d for %q", resp.StatusCode, name)
	}

	var payload pypiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return entities.RegistryInfo{}, fmt.Errorf("failed to decode PyPI response for %q: %w", name, err)
	}

	urls := payload.Info.ProjectURLs
	return entities.RegistryInfo{
		Name:          name,
		LatestVersion: payload.Info.Version,
		HomepageURL:   payload.Info.HomePage,
		RepositoryURL: resolveRepositoryURL(urls),
		ChangelogURL:  resolveByKeys(urls, changelogURLKeys),
	}, nil
}

func resolveRepositoryURL(urls map[string]string) string {
	if url := resolveByKeys(urls, repoURLKeys); url != "" {
		return url
	}
	// No named key matched; accept any URL pointing at a known forge.
	for _, url := range urls {
		if strings.Contains(url, "github.com") || strings.Contains(url, "gitlab.com") {
			return stripFragment(url)
		}
	}
	return ""
}

func resolveByKeys(urls map[string]string, keys []string) string {
	for _, key := range keys {
		for k, url := range urls {
			if strings.EqualFold(k, key) && url != "" {
				return stripFragment(url)
			}
		}
	}
	return ""
}

func stripFragment(url string) string {
	if i := strings.Index(url, "#"); i >= 0 {
		return url[:i]
	}
	return url
}
