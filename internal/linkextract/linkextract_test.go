package linkextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractClassifiesEachKind(t *testing.T) {
	body := "See [external](https://example.com/x) and [design](design/system.md#LTARGT001AAA)\n" +
		"and [design only](design/system.md) and [shorthand](LTARGT001AAA) and [misc](not-a-link-thing).\n"

	links := Extract(body)
	require.Len(t, links, 5)

	assert.Equal(t, External, links[0].Kind)
	assert.Equal(t, Canonical, links[1].Kind)
	assert.Equal(t, "design/system.md", links[1].Path)
	assert.Equal(t, "LTARGT001AAA", links[1].FragmentID)
	assert.Equal(t, PathOnly, links[2].Kind)
	assert.Equal(t, ShorthandId, links[3].Kind)
	assert.Equal(t, Other, links[4].Kind)
}

func TestExtractRecordsSourceLine(t *testing.T) {
	body := "first line\nsecond [link](LAA001AAA) line\n"
	links := Extract(body)
	require.Len(t, links, 1)
	assert.Equal(t, 2, links[0].Line)
}

func TestExtractSkipsCodeFences(t *testing.T) {
	body := "```\n[not a link](LAA001AAA)\n```\nreal [link](LAA001AAA)\n"
	links := Extract(body)
	require.Len(t, links, 1)
	assert.Equal(t, 4, links[0].Line)
}

func TestExtractSkipsInlineCode(t *testing.T) {
	body := "text `[code](LAA001AAA)` more [real](LAA001AAA)\n"
	links := Extract(body)
	require.Len(t, links, 1)
	assert.Equal(t, "real", links[0].Text)
}
