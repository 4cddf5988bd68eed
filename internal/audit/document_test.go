package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	body := []byte(`<html><head>
<title>  Caf` + "\xe9" + `  </title>
<meta NAME="Description" content="About us">
<meta property="og:title" content="OG">
<meta name="robots">
<style>body { color: red }</style>
</head><body><p>Hello</p><script>var x = 1;</script><p>world.</p></body></html>`)

	doc, err := ParseDocument(body, "text/html; charset=iso-8859-1")
	require.NoError(t, err)

	assert.Equal(t, "Café", doc.Title())

	desc, ok := doc.MetaByName("description")
	assert.True(t, ok)
	assert.Equal(t, "About us", desc)

	og, ok := doc.MetaByProperty("og:title")
	assert.True(t, ok)
	assert.Equal(t, "OG", og)

	robots, ok := doc.MetaByName("robots")
	assert.True(t, ok)
	assert.Empty(t, robots)

	_, ok = doc.MetaByName("viewport")
	assert.False(t, ok)

	text := doc.VisibleText()
	assert.Contains(t, text, "Helloworld.")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "color: red")

	// the tree is not modified by text extraction
	assert.Contains(t, doc.Serialized(), "var x = 1;")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "hi", truncate("hi", 10))
	assert.Equal(t, 5, charCount("héllo"))
}
