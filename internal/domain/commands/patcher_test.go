//go:build unit

package commands_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/depscope/depscope/internal/domain/commands"
)

func TestCreateUnifiedDiff(t *testing.T) {
	t.Parallel()

	t.Run("should render headers and hunks for a change", func(t *testing.T) {
		t.Parallel()

		// given
		original := "import requests\n\nresp = requests.get(url, verify=False)\n"
		patched := "import requests\n\nresp = requests.get(url)\n"

		// when
		diff := commands.CreateUnifiedDiff("app.py", original, patched)

		// then
		assert.Contains(t, diff, "--- app.py")
		assert.Contains(t, diff, "+++ app.py")
		assert.Contains(t, diff, "@@")
		assert.Contains(t, diff, "-resp = requests.get(url, verify=False)")
		assert.Contains(t, diff, "+resp = requests.get(url)")
		assert.Contains(t, diff, " import requests")
	})

	t.Run("should produce an empty body for identical contents", func(t *testing.T) {
		t.Parallel()

		// when
		diff := commands.CreateUnifiedDiff("app.py", "same\n", "same\n")

		// then
		assert.NotContains(t, diff, "@@")
	})
}

func TestSplitSubChunks(t *testing.T) {
	t.Parallel()

	t.Run("should keep small content as a single chunk", func(t *testing.T) {
		t.Parallel()

		// when
		subs := commands.SplitSubChunks("short", 100)

		// then
		assert.Equal(t, []string{"short"}, subs)
	})

	t.Run("should keep empty content as one empty chunk", func(t *testing.T) {
		t.Parallel()

		// when
		subs := commands.SplitSubChunks("", 100)

		// then
		assert.Equal(t, []string{""}, subs)
	})

	t.Run("should split without dropping or overlapping", func(t *testing.T) {
		t.Parallel()

		// given
		content := strings.Repeat("abcde", 7) // 35 chars

		// when
		subs := commands.SplitSubChunks(content, 10)

		// then
		assert.Len(t, subs, 4)
		assert.Equal(t, content, strings.Join(subs, ""))
		for _, sub := range subs {
			assert.LessOrEqual(t, len(sub), 10)
		}
	})

	t.Run("should never cut through a multi-byte rune", func(t *testing.T) {
		t.Parallel()

		// given
		content := strings.Repeat("héllo", 5) // 25 runes, 30 bytes

		// when
		subs := commands.SplitSubChunks(content, 10)

		// then
		assert.Len(t, subs, 3)
		assert.Equal(t, content, strings.Join(subs, ""))
		for _, sub := range subs {
			assert.True(t, utf8.ValidString(sub))
			assert.LessOrEqual(t, len([]rune(sub)), 10)
		}
	})
}
