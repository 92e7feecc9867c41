package entities

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// parseIntTuple decomposes a version string into dot-separated integers.
// It is the fallback comparison for version strings semver cannot parse
// (PyPI pre-release forms like 2.28.0rc1, npm oddities).
func parseIntTuple(v string) ([]int, bool) {
	parts := strings.Split(v, ".")
	tuple := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, false
		}
		tuple = append(tuple, n)
	}
	return tuple, true
}

func compareIntTuples(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// IsNewerVersion reports whether latest is strictly newer than current.
//
// Comparison is semantic when both strings parse ("0.13" and "0.13.0" are
// equal, never flagged as outdated), falls back to integer tuples, and
// ultimately to plain string inequality for strings neither parser accepts.
func IsNewerVersion(latest, current string) bool {
	lv, lErr := semver.NewVersion(latest)
	cv, cErr := semver.NewVersion(current)
	if lErr == nil && cErr == nil {
		return lv.GreaterThan(cv)
	}

	lt, lOK := parseIntTuple(latest)
	ct, cOK := parseIntTuple(current)
	if lOK && cOK {
		return compareIntTuples(lt, ct) > 0
	}

	return latest != current
}

// FilterChunksByVersionRange returns the chunks whose version lies in the
// half-open interval (currentVersion, latestVersion], preserving original
// order. The chunk exactly at currentVersion is always excluded; the chunk
// exactly at latestVersion is always included when present.
//
// When currentVersion or latestVersion is not semver-parseable, all
// comparisons fall back to integer tuples. A chunk whose own version string
// is unparseable by either method is silently excluded.
func FilterChunksByVersionRange(chunks []ChangelogChunk, currentVersion, latestVersion string) []ChangelogChunk {
	if len(chunks) == 0 {
		return nil
	}

	current, cErr := semver.NewVersion(currentVersion)
	latest, lErr := semver.NewVersion(latestVersion)
	useSemver := cErr == nil && lErr == nil

	var currentTuple, latestTuple []int
	if !useSemver {
		var cOK, lOK bool
		currentTuple, cOK = parseIntTuple(currentVersion)
		latestTuple, lOK = parseIntTuple(latestVersion)
		if !cOK || !lOK {
			return nil
		}
	}

	var filtered []ChangelogChunk
	for _, chunk := range chunks {
		if useSemver {
			v, err := semver.NewVersion(chunk.Version)
			if err != nil {
				continue
			}
			if v.GreaterThan(current) && !v.GreaterThan(latest) {
				filtered = append(filtered, chunk)
			}
			continue
		}

		tuple, ok := parseIntTuple(chunk.Version)
		if !ok {
			continue
		}
		if compareIntTuples(tuple, currentTuple) > 0 && compareIntTuples(tuple, latestTuple) <= 0 {
			filtered = append(filtered, chunk)
		}
	}

	return filtered
}
