package npm

import (
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

// Test seams for pointing the client at an httptest server.

func (r *NPMRegistryRepository) SetBaseURL(url string) {
	r.baseURL = url
}

// AttemptTimeout exposes the per-attempt HTTP timeout of the constructed client.
func (r *NPMRegistryRepository) AttemptTimeout() time.Duration {
	return r.client.Transport.(*retryablehttp.RoundTripper).Client.HTTPClient.Timeout
}

var NormalizeRepositoryURL = normalizeRepositoryURL //nolint:gochecknoglobals // test export
