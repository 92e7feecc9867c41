package entities

import (
	"regexp"
	"strings"
)

// ChangelogChunk is a contiguous span of changelog text attributed to exactly
// one version. Chunks keep document order (newest-first in most changelogs)
// and are never deduplicated: a repeated header yields a second chunk.
type ChangelogChunk struct {
	Version string
	Content string
}

var (
	// versionPattern matches a bare version number at the start of a cleaned
	// string: 1.2.3 or 1.2. Header recognition does not accept four components.
	versionPattern = regexp.MustCompile(`^(\d+\.\d+(?:\.\d+)?)`)

	atxHeadingPattern  = regexp.MustCompile(`^#{1,6}\s`)
	headingMarkerStrip = regexp.MustCompile(`^#{1,6}\s*`)
	boldOpenStrip      = regexp.MustCompile(`^\*{1,2}`)
	boldCloseStrip     = regexp.MustCompile(`\*{1,2}$`)
	prefixWordPattern  = regexp.MustCompile(`^([A-Za-z]\w{0,29})\s+(.*)`)
	boldWrappedPattern = regexp.MustCompile(`^\*{1,2}[^*\s]`)
	setextUnderline    = regexp.MustCompile(`^[-=]{3,}$`)
	bareVersionPattern = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?$`)
	parenDateSuffix    = regexp.MustCompile(`\s*\([\d\-]+\)\s*$`)
	dashDateSuffix     = regexp.MustCompile(`\s*[-–]\s*[\d\-]+\s*$`)
	closingMarkupStrip = regexp.MustCompile(`^[\]* ]+`)
	leadingDashedDate  = regexp.MustCompile(`^[-–]\s*\d{4}[\d\-]*\s*`)
	leadingParenedDate = regexp.MustCompile(`^\(\d{4}[\d\-]*\)\s*`)
)

// ParseVersionFromLine extracts a version string when the line's primary
// purpose is naming a version (the content signal of header recognition).
//
// It strips formatting markup (##, **, [], an optional single short prefix
// word like "Release", a v-prefix), then checks that what remains is a
// version number followed by at most a brief suffix (closing markup, a date).
// Longer remainders mean the line is prose mentioning a version, and the
// empty string is returned.
func ParseVersionFromLine(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimSpace(headingMarkerStrip.ReplaceAllString(s, ""))
	s = strings.TrimSpace(boldOpenStrip.ReplaceAllString(s, ""))
	s = strings.TrimSpace(boldCloseStrip.ReplaceAllString(s, ""))
	s = strings.TrimSpace(strings.TrimPrefix(s, "["))

	// Optional single-word prefix: "Release", "Version", etc.
	if m := prefixWordPattern.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[2])
	}

	// Strip a leading v/V immediately followed by a digit.
	if len(s) > 1 && (s[0] == 'v' || s[0] == 'V') && s[1] >= '0' && s[1] <= '9' {
		s = s[1:]
	}

	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	version := m[1]
	remainder := strings.TrimSpace(s[len(m[0]):])

	// Allow: nothing, closing ] or **, an optional "- YYYY-MM-DD" or "(YYYY-MM-DD)".
	remainder = strings.TrimSpace(closingMarkupStrip.ReplaceAllString(remainder, ""))
	remainder = strings.TrimSpace(leadingDashedDate.ReplaceAllString(remainder, ""))
	remainder = strings.TrimSpace(leadingParenedDate.ReplaceAllString(remainder, ""))

	// More than two words of leftover content means this is prose, not a header.
	if len(strings.Fields(remainder)) > 2 {
		return ""
	}

	return version
}

// IsHeaderPosition reports whether line i carries header-level structural
// markup (the position signal of header recognition).
//
// Accepted shapes:
//   - Markdown ATX heading  (## ...)
//   - Bold-wrapped line     (**Release ...**)
//   - RST setext underline  (next line is ---/=== of length >= 3)
//   - Bare version at the start of the document or right after a blank line
func IsHeaderPosition(i int, lines []string) bool {
	raw := lines[i]
	stripped := strings.TrimSpace(raw)

	if atxHeadingPattern.MatchString(raw) {
		return true
	}

	if boldWrappedPattern.MatchString(stripped) {
		return true
	}

	if i+1 < len(lines) && setextUnderline.MatchString(strings.TrimSpace(lines[i+1])) {
		return true
	}

	bare := strings.TrimPrefix(stripped, "v")
	bare = strings.TrimSpace(parenDateSuffix.ReplaceAllString(bare, ""))
	bare = strings.TrimSpace(dashDateSuffix.ReplaceAllString(bare, ""))
	if bareVersionPattern.MatchString(bare) {
		if i == 0 || strings.TrimSpace(lines[i-1]) == "" {
			return true
		}
	}

	return false
}

// ChunkChangelogByVersion splits free-form changelog text into per-version
// chunks. A line becomes a section header only when both the content signal
// (ParseVersionFromLine) and the position signal (IsHeaderPosition) pass.
//
// Handled formats:
//   - ATX headings:  ## v1.0.0, ## [3.0.0], ## Release 4.1.0 - 2024-10-12
//   - Bold headers:  **Release 4.0.6** - 2024-03-09
//   - RST setext:    2.32.5 (2025-08-18) followed by an underline
//   - Bare version:  1.0.0 preceded by a blank line
//
// Texts with no recognizable headers (including empty input) yield nil,
// which callers treat as "unparseable" rather than as an error.
func ChunkChangelogByVersion(text string) []ChangelogChunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := strings.Split(text, "\n")

	// Line start offsets for slicing the original text.
	offsets := make([]int, len(lines))
	pos := 0
	for i, line := range lines {
		offsets[i] = pos
		pos += len(line) + 1
	}

	type headerPosition struct {
		lineIndex  int
		version    string
		charOffset int
	}

	var headers []headerPosition
	for i, line := range lines {
		version := ParseVersionFromLine(line)
		if version != "" && IsHeaderPosition(i, lines) {
			headers = append(headers, headerPosition{lineIndex: i, version: version, charOffset: offsets[i]})
		}
	}

	if len(headers) == 0 {
		return nil
	}

	chunks := make([]ChangelogChunk, 0, len(headers))
	for idx, header := range headers {
		contentLine := header.lineIndex + 1
		// Skip the RST underline if present.
		if contentLine < len(lines) && setextUnderline.MatchString(strings.TrimSpace(lines[contentLine])) {
			contentLine++
		}

		contentStart := len(text)
		if contentLine < len(lines) {
			contentStart = offsets[contentLine]
		}

		contentEnd := len(text)
		if idx+1 < len(headers) {
			contentEnd = headers[idx+1].charOffset
		}

		content := ""
		if contentStart < contentEnd {
			content = strings.TrimSpace(text[contentStart:contentEnd])
		}

		chunks = append(chunks, ChangelogChunk{Version: header.version, Content: content})
	}

	return chunks
}
