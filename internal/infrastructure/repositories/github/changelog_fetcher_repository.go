package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/jaytaylor/html2text"
	logger "github.com/sirupsen/logrus"

	"github.com/depscope/depscope/config"
	"github.com/depscope/depscope/internal/domain/entities"
	"github.com/depscope/depscope/internal/domain/repositories"
)

const (
	defaultRawBaseURL = "https://raw.githubusercontent.com"

	// fetchTimeout bounds each changelog HTTP attempt.
	fetchTimeout = 30 * time.Second
)

// githubRepoPattern extracts owner and repo from a GitHub URL of any of the
// common shapes (https, ssh, with or without .git / #fragment).
var githubRepoPattern = regexp.MustCompile(`github\.com[/:]([^/]+)/([^/.#]+)`)

// blobURLPattern finds a GitHub blob URL embedded in stub files that just
// point at the real changelog.
var blobURLPattern = regexp.MustCompile(`https?://github\.com/([^/\s]+)/([^/\s]+)/blob/([^/\s]+)/([^\s` + "`" + `>"']+)`)

// htmlHeadingPattern captures heading elements so their text can be kept as
// version headers when the rest of the markup is stripped.
var htmlHeadingPattern = regexp.MustCompile(`(?is)<h[1-6][^>]*>(.*?)</h[1-6]\s*>`)

// changelogFilenames are tried at the repository root and inside every doc
// subdirectory, uppercase variants first.
var changelogFilenames = []string{
	"CHANGELOG.md",
	"CHANGELOG.rst",
	"CHANGES.md",
	"CHANGES.rst",
	"HISTORY.md",
	"HISTORY.rst",
	"NEWS.md",
	"NEWS.rst",
	"changelog.md",
	"changelog.rst",
	"changes.md",
	"changes.rst",
}

// docPrefixes are searched after every root-level filename fails.
var docPrefixes = []string{"docs/", "doc/", "doc/en/", "docs/en/"}

var probeBranches = []string{"main", "master"}

// ChangelogFetcherRepository resolves changelog text for an outdated
// dependency through a chain of strategies: the registry-advertised
// changelog URL, raw files on GitHub, and the GitHub Releases API.
type ChangelogFetcherRepository struct {
	httpClient *http.Client
	ghClient   *gh.Client
	token      string
	maxProbes  int
	rawBaseURL string
}

// NewChangelogFetcherRepository creates the fetcher. A GitHub token is
// optional; when present the Releases API is tried before raw-file probing
// because authenticated API quota is far larger.
func NewChangelogFetcherRepository(settings *config.Settings) repositories.ChangelogRepository {
	retry := retryablehttp.NewClient()
	retry.RetryMax = 2
	retry.Logger = nil
	retry.HTTPClient.Timeout = fetchTimeout
	httpClient := retry.StandardClient()

	ghClient := gh.NewClient(nil)
	if settings.GitHubToken != "" {
		ghClient = ghClient.WithAuthToken(settings.GitHubToken)
	}

	maxProbes := settings.MaxConcurrentProbes
	if maxProbes <= 0 {
		maxProbes = 10
	}

	return &ChangelogFetcherRepository{
		httpClient: httpClient,
		ghClient:   ghClient,
		token:      settings.GitHubToken,
		maxProbes:  maxProbes,
		rawBaseURL: defaultRawBaseURL,
	}
}

// Fetch returns the changelog text for the dependency plus diagnostic
// warnings. It never returns an error: a dependency without a reachable
// changelog yields empty text and a warning naming it.
func (r *ChangelogFetcherRepository) Fetch(ctx context.Context, dep entities.OutdatedDependency) (string, []string) {
	if dep.ChangelogURL == "" && dep.RepositoryURL == "" {
		return "", []string{fmt.Sprintf("No changelog URL or repository URL provided for %s", dep.Name)}
	}

	if dep.ChangelogURL != "" {
		text, err := r.fetchDirect(ctx, dep.ChangelogURL)
		if err == nil {
			return text, nil
		}
		logger.Debugf("Direct changelog URL failed for %s: %v", dep.Name, err)
	}

	if dep.RepositoryURL != "" {
		// With a token the API quota is 5000 req/hr, so try it before the
		// slower file probing. Without one, preserve the 60 req/hr quota.
		strategies := []func(context.Context, string) (string, error){
			r.fetchFromRawFiles, r.fetchFromReleases,
		}
		if r.token != "" {
			strategies = []func(context.Context, string) (string, error){
				r.fetchFromReleases, r.fetchFromRawFiles,
			}
		}

		for _, strategy := range strategies {
			text, err := strategy(ctx, dep.RepositoryURL)
			if err == nil {
				return text, nil
			}
			logger.Debugf("Changelog strategy failed for %s: %v", dep.Name, err)
		}
	}

	return "", []string{fmt.Sprintf("Could not fetch changelog for %s", dep.Name)}
}

// fetchDirect downloads the advertised changelog URL. HTML responses are
// stripped to plain text and must contain parseable version headers; plain
// text responses are returned verbatim.
func (r *ChangelogFetcherRepository) fetchDirect(ctx context.Context, url string) (string, error) {
	text, err := r.get(ctx, url)
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(strings.TrimLeft(text, " \t\r\n"), "<") {
		// html2text flattens headings to prose, losing the version structure
		// the chunker keys on. Rewrite them as markdown headers first.
		normalized := htmlHeadingPattern.ReplaceAllString(text, "<p>## $1</p>")
		stripped, convErr := html2text.FromString(normalized, html2text.Options{OmitLinks: true, TextOnly: true})
		if convErr != nil {
			return "", fmt.Errorf("failed to strip HTML from %q: %w", url, convErr)
		}
		if entities.ChunkChangelogByVersion(stripped) == nil {
			return "", fmt.Errorf("HTML response with no parseable version headers: %s", url)
		}
		return stripped, nil
	}
	return text, nil
}

// fetchFromRawFiles probes common changelog filenames on the raw file host,
// root-level paths first, then doc subdirectories. Files that respond 200
// but carry no version headers are treated as stubs and scanned for an
// embedded blob URL to follow.
func (r *ChangelogFetcherRepository) fetchFromRawFiles(ctx context.Context, repositoryURL string) (string, error) {
	owner, repo, err := parseOwnerRepo(repositoryURL)
	if err != nil {
		return "", err
	}

	var docPaths []string
	for _, prefix := range docPrefixes {
		for _, name := range changelogFilenames {
			docPaths = append(docPaths, prefix+name)
		}
	}

	for _, paths := range [][]string{changelogFilenames, docPaths} {
		urls := make([]string, 0, len(probeBranches)*len(paths))
		for _, branch := range probeBranches {
			for _, path := range paths {
				urls = append(urls, fmt.Sprintf("%s/%s/%s/%s/%s", r.rawBaseURL, owner, repo, branch, path))
			}
		}

		if text := r.probeFirstValid(ctx, urls); text != "" {
			return text, nil
		}
		if text := r.followStubs(ctx, urls); text != "" {
			return text, nil
		}
	}

	return "", fmt.Errorf("no changelog file found for %s/%s", owner, repo)
}

// probeFirstValid fans out GETs for every URL, capped by maxProbes, and
// returns the first body with parseable version headers. Remaining probes
// are cancelled once a winner arrives; their failures are irrelevant.
func (r *ChangelogFetcherRepository) probeFirstValid(ctx context.Context, urls []string) string {
	probeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, r.maxProbes)
	results := make(chan string, len(urls))

	for _, url := range urls {
		go func(url string) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-probeCtx.Done():
				results <- ""
				return
			}

			text, err := r.get(probeCtx, url)
			if err == nil && entities.ChunkChangelogByVersion(text) != nil {
				results <- text
				return
			}
			results <- ""
		}(url)
	}

	for range urls {
		if text := <-results; text != "" {
			return text
		}
	}
	return ""
}

// followStubs re-fetches each URL sequentially looking for a 200 response
// without version headers that embeds a blob URL, and follows that URL's
// raw equivalent.
func (r *ChangelogFetcherRepository) followStubs(ctx context.Context, urls []string) string {
	for _, url := range urls {
		text, err := r.get(ctx, url)
		if err != nil || entities.ChunkChangelogByVersion(text) != nil {
			continue
		}

		m := blobURLPattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		rawURL := fmt.Sprintf("%s/%s/%s/%s/%s", r.rawBaseURL, m[1], m[2], m[3], m[4])
		followed, err := r.get(ctx, rawURL)
		if err == nil && entities.ChunkChangelogByVersion(followed) != nil {
			return followed
		}
	}
	return ""
}

// fetchFromReleases concatenates release notes from the GitHub Releases API,
// following pagination and dropping drafts and pre-releases.
func (r *ChangelogFetcherRepository) fetchFromReleases(ctx context.Context, repositoryURL string) (string, error) {
	owner, repo, err := parseOwnerRepo(repositoryURL)
	if err != nil {
		return "", err
	}

	opts := &gh.ListOptions{PerPage: 100}
	var sections []string
	for {
		releases, resp, err := r.ghClient.Repositories.ListReleases(ctx, owner, repo, opts)
		if err != nil {
			return "", fmt.Errorf("failed to list releases for %s/%s: %w", owner, repo, err)
		}

		for _, release := range releases {
			if release.GetDraft() || release.GetPrerelease() {
				continue
			}
			sections = append(sections, fmt.Sprintf("## %s\n%s", release.GetTagName(), release.GetBody()))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if len(sections) == 0 {
		return "", fmt.Errorf("no releases found for %s/%s", owner, repo)
	}
	return strings.Join(sections, "\n\n"), nil
}

func (r *ChangelogFetcherRepository) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %q: %w", url, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %q: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%q returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body of %q: %w", url, err)
	}
	return string(body), nil
}

func parseOwnerRepo(repositoryURL string) (string, string, error) {
	m := githubRepoPattern.FindStringSubmatch(repositoryURL)
	if m == nil {
		return "", "", fmt.Errorf("cannot parse GitHub URL: %s", repositoryURL)
	}
	return m[1], m[2], nil
}
