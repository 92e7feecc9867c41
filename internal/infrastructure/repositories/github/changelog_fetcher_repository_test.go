//go:build unit

package github_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depscope/depscope/config"
	"github.com/depscope/depscope/internal/domain/entities"
	"github.com/depscope/depscope/internal/infrastructure/repositories/github"
	"github.com/depscope/depscope/test/domain/entitybuilders"
)

const markdownChangelog = "## 2.31.0\n\n- Removed the deprecated verify kwarg\n\n## 2.30.0\n\n- Switched to urllib3 2.0\n"

func newFetcher(t *testing.T, settings *config.Settings) *github.ChangelogFetcherRepository {
	t.Helper()
	fetcher, ok := github.NewChangelogFetcherRepository(settings).(*github.ChangelogFetcherRepository)
	require.True(t, ok)
	return fetcher
}

func TestChangelogFetcherFetch(t *testing.T) {
	t.Parallel()

	t.Run("should warn when no URLs are available", func(t *testing.T) {
		t.Parallel()

		// given
		fetcher := newFetcher(t, &config.Settings{})
		dep := entitybuilders.NewOutdatedDependencyBuilder().
			WithRepositoryURL("").
			WithChangelogURL("").
			BuildOutdatedDependency()

		// when
		text, warnings := fetcher.Fetch(context.Background(), dep)

		// then
		assert.Empty(t, text)
		require.Len(t, warnings, 1)
		assert.Equal(t, "No changelog URL or repository URL provided for requests", warnings[0])
	})

	t.Run("should return a direct plain-text changelog verbatim", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(markdownChangelog))
		}))
		defer server.Close()

		fetcher := newFetcher(t, &config.Settings{})
		dep := entitybuilders.NewOutdatedDependencyBuilder().
			WithChangelogURL(server.URL + "/HISTORY.md").
			WithRepositoryURL("").
			BuildOutdatedDependency()

		// when
		text, warnings := fetcher.Fetch(context.Background(), dep)

		// then
		assert.Equal(t, markdownChangelog, text)
		assert.Empty(t, warnings)
	})

	t.Run("should strip HTML direct responses into chunkable text", func(t *testing.T) {
		t.Parallel()

		// given
		page := `<html><body>
			<h2>2.31.0</h2><p>Removed the deprecated verify kwarg</p>
			<h2>2.30.0</h2><p>Switched to urllib3 2.0</p>
		</body></html>`
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(page))
		}))
		defer server.Close()

		fetcher := newFetcher(t, &config.Settings{})
		dep := entitybuilders.NewOutdatedDependencyBuilder().
			WithChangelogURL(server.URL + "/changelog").
			WithRepositoryURL("").
			BuildOutdatedDependency()

		// when
		text, warnings := fetcher.Fetch(context.Background(), dep)

		// then
		assert.Empty(t, warnings)
		assert.NotContains(t, text, "<h2>")

		chunks := entities.ChunkChangelogByVersion(text)
		require.Len(t, chunks, 2)
		assert.Equal(t, "2.31.0", chunks[0].Version)
		assert.Contains(t, chunks[0].Content, "Removed the deprecated verify kwarg")
		assert.Equal(t, "2.30.0", chunks[1].Version)
		assert.Contains(t, chunks[1].Content, "Switched to urllib3 2.0")
	})

	t.Run("should probe raw changelog files when no direct URL works", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/psf/requests/main/HISTORY.md" {
				_, _ = w.Write([]byte(markdownChangelog))
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		fetcher := newFetcher(t, &config.Settings{MaxConcurrentProbes: 4})
		fetcher.SetRawBaseURL(server.URL)
		dep := entitybuilders.NewOutdatedDependencyBuilder().
			WithChangelogURL("").
			WithRepositoryURL("https://github.com/psf/requests").
			BuildOutdatedDependency()

		// when
		text, warnings := fetcher.Fetch(context.Background(), dep)

		// then
		assert.Empty(t, warnings)
		assert.Equal(t, markdownChangelog, text)
	})

	t.Run("should follow stub files pointing at the real changelog", func(t *testing.T) {
		t.Parallel()

		// given
		stub := "See https://github.com/psf/requests/blob/main/docs/HISTORY.md for the changelog."
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/psf/requests/main/CHANGELOG.md":
				_, _ = w.Write([]byte(stub))
			case "/psf/requests/main/docs/HISTORY.md":
				_, _ = w.Write([]byte(markdownChangelog))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		fetcher := newFetcher(t, &config.Settings{MaxConcurrentProbes: 4})
		fetcher.SetRawBaseURL(server.URL)
		dep := entitybuilders.NewOutdatedDependencyBuilder().
			WithChangelogURL("").
			WithRepositoryURL("https://github.com/psf/requests").
			BuildOutdatedDependency()

		// when
		text, warnings := fetcher.Fetch(context.Background(), dep)

		// then
		assert.Empty(t, warnings)
		assert.Equal(t, markdownChangelog, text)
	})

	t.Run("should fall back to the releases API when no file exists", func(t *testing.T) {
		t.Parallel()

		// given
		rawServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer rawServer.Close()

		apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "/repos/psf/requests/releases")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"tag_name": "v2.31.0", "body": "Removed the deprecated verify kwarg", "draft": false, "prerelease": false},
				{"tag_name": "v2.31.0rc1", "body": "rc notes", "draft": false, "prerelease": true},
				{"tag_name": "v2.30.0", "body": "Switched to urllib3 2.0", "draft": false, "prerelease": false}
			]`))
		}))
		defer apiServer.Close()

		fetcher := newFetcher(t, &config.Settings{MaxConcurrentProbes: 4})
		fetcher.SetRawBaseURL(rawServer.URL)
		require.NoError(t, fetcher.SetAPIBaseURL(apiServer.URL))
		dep := entitybuilders.NewOutdatedDependencyBuilder().
			WithChangelogURL("").
			WithRepositoryURL("https://github.com/psf/requests").
			BuildOutdatedDependency()

		// when
		text, warnings := fetcher.Fetch(context.Background(), dep)

		// then
		assert.Empty(t, warnings)
		assert.Contains(t, text, "## v2.31.0\nRemoved the deprecated verify kwarg")
		assert.Contains(t, text, "## v2.30.0\nSwitched to urllib3 2.0")
		assert.NotContains(t, text, "rc notes")
	})

	t.Run("should try the releases API first when a token is configured", func(t *testing.T) {
		t.Parallel()

		// given
		rawCalls := 0
		rawServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			rawCalls++
			w.WriteHeader(http.StatusNotFound)
		}))
		defer rawServer.Close()

		apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = fmt.Fprint(w, `[{"tag_name": "v2.31.0", "body": "notes", "draft": false, "prerelease": false}]`)
		}))
		defer apiServer.Close()

		fetcher := newFetcher(t, &config.Settings{GitHubToken: "ghp_test", MaxConcurrentProbes: 4})
		fetcher.SetRawBaseURL(rawServer.URL)
		require.NoError(t, fetcher.SetAPIBaseURL(apiServer.URL))
		dep := entitybuilders.NewOutdatedDependencyBuilder().
			WithChangelogURL("").
			WithRepositoryURL("https://github.com/psf/requests").
			BuildOutdatedDependency()

		// when
		text, warnings := fetcher.Fetch(context.Background(), dep)

		// then
		assert.Empty(t, warnings)
		assert.Contains(t, text, "## v2.31.0")
		assert.Zero(t, rawCalls, "raw probing must not run when the API succeeds")
	})

	t.Run("should warn when every strategy fails", func(t *testing.T) {
		t.Parallel()

		// given
		deadServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer deadServer.Close()

		fetcher := newFetcher(t, &config.Settings{MaxConcurrentProbes: 4})
		fetcher.SetRawBaseURL(deadServer.URL)
		require.NoError(t, fetcher.SetAPIBaseURL(deadServer.URL))
		dep := entitybuilders.NewOutdatedDependencyBuilder().
			WithChangelogURL("").
			WithRepositoryURL("https://github.com/psf/requests").
			BuildOutdatedDependency()

		// when
		text, warnings := fetcher.Fetch(context.Background(), dep)

		// then
		assert.Empty(t, text)
		require.Len(t, warnings, 1)
		assert.Equal(t, "Could not fetch changelog for requests", warnings[0])
	})
}

func TestChangelogFetcherTimeout(t *testing.T) {
	t.Parallel()

	// given
	fetcher := newFetcher(t, &config.Settings{})

	// then
	assert.Equal(t, 30*time.Second, fetcher.AttemptTimeout())
}

func TestParseOwnerRepo(t *testing.T) {
	t.Parallel()

	t.Run("should parse common GitHub URL shapes", func(t *testing.T) {
		t.Parallel()

		// given
		cases := map[string][2]string{
			"https://github.com/psf/requests":          {"psf", "requests"},
			"https://github.com/psf/requests.git":      {"psf", "requests"},
			"git@github.com:psf/requests.git":          {"psf", "requests"},
			"https://github.com/psf/requests#readme":   {"psf", "requests"},
			"https://github.com/psf/requests/issues/1": {"psf", "requests"},
		}

		for url, expected := range cases {
			// when
			owner, repo, err := github.ParseOwnerRepo(url)

			// then
			require.NoError(t, err, "url: %q", url)
			assert.Equal(t, expected[0], owner)
			assert.Equal(t, expected[1], repo)
		}
	})

	t.Run("should reject non-GitHub URLs", func(t *testing.T) {
		t.Parallel()

		// when
		_, _, err := github.ParseOwnerRepo("https://gitlab.com/group/project")

		// then
		require.Error(t, err)
	})
}
