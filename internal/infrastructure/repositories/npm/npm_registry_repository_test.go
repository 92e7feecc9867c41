//go:build unit

package npm_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depscope/depscope/internal/domain/entities"
	"github.com/depscope/depscope/internal/infrastructure/repositories/npm"
)

func TestNPMRegistryQuery(t *testing.T) {
	t.Parallel()

	t.Run("should resolve latest version and repository URL", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/express", r.URL.Path)
			_, _ = w.Write([]byte(`{
				"dist-tags": {"latest": "4.19.2", "next": "5.0.0-beta.3"},
				"homepage": "https://expressjs.com",
				"repository": {"url": "git+https://github.com/expressjs/express.git"}
			}`))
		}))
		defer server.Close()

		registry := npm.NewNPMRegistryRepository().(*npm.NPMRegistryRepository)
		registry.SetBaseURL(server.URL)

		// when
		info, err := registry.Query(context.Background(), "express")

		// then
		require.NoError(t, err)
		assert.Equal(t, "4.19.2", info.LatestVersion)
		assert.Equal(t, "https://expressjs.com", info.HomepageURL)
		assert.Equal(t, "https://github.com/expressjs/express", info.RepositoryURL)
		assert.Empty(t, info.ChangelogURL)
	})

	t.Run("should fail when the latest dist-tag is missing", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"dist-tags": {}}`))
		}))
		defer server.Close()

		registry := npm.NewNPMRegistryRepository().(*npm.NPMRegistryRepository)
		registry.SetBaseURL(server.URL)

		// when
		_, err := registry.Query(context.Background(), "broken")

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no latest dist-tag")
	})

	t.Run("should fail on non-200 status", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		registry := npm.NewNPMRegistryRepository().(*npm.NPMRegistryRepository)
		registry.SetBaseURL(server.URL)

		// when
		_, err := registry.Query(context.Background(), "no-such-package")

		// then
		require.Error(t, err)
	})
}

func TestNormalizeRepositoryURL(t *testing.T) {
	t.Parallel()

	// given
	cases := map[string]string{
		"git+https://github.com/expressjs/express.git": "https://github.com/expressjs/express",
		"git://github.com/lodash/lodash.git":           "https://github.com/lodash/lodash",
		"ssh://git@github.com/jestjs/jest.git":         "https://github.com/jestjs/jest",
		"https://github.com/plain/url":                 "https://github.com/plain/url",
		"": "",
	}

	for input, expected := range cases {
		// when
		result := npm.NormalizeRepositoryURL(input)

		// then
		assert.Equal(t, expected, result, "input: %q", input)
	}
}

func TestNPMRegistryMatches(t *testing.T) {
	t.Parallel()

	// given
	registry := npm.NewNPMRegistryRepository()

	// then
	assert.Equal(t, "npm", registry.Name())
	assert.True(t, registry.Matches(entities.EcosystemNodeJS))
	assert.False(t, registry.Matches(entities.EcosystemPython))
}

func TestNPMRegistryTimeout(t *testing.T) {
	t.Parallel()

	// given
	registry := npm.NewNPMRegistryRepository().(*npm.NPMRegistryRepository)

	// then
	assert.Equal(t, 30*time.Second, registry.AttemptTimeout())
}
