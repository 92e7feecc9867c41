package github

import (
	"net/url"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

// Test seams for pointing the fetcher at httptest servers.

func (r *ChangelogFetcherRepository) SetRawBaseURL(base string) {
	r.rawBaseURL = base
}

func (r *ChangelogFetcherRepository) SetAPIBaseURL(base string) error {
	parsed, err := url.Parse(base + "/")
	if err != nil {
		return err
	}
	r.ghClient.BaseURL = parsed
	return nil
}

func (r *ChangelogFetcherRepository) SetToken(token string) {
	r.token = token
}

// AttemptTimeout exposes the per-attempt HTTP timeout of the constructed client.
func (r *ChangelogFetcherRepository) AttemptTimeout() time.Duration {
	return r.httpClient.Transport.(*retryablehttp.RoundTripper).Client.HTTPClient.Timeout
}

var ParseOwnerRepo = parseOwnerRepo //nolint:gochecknoglobals // test export
