package parser

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seen struct {
	Kind EventKind
	Name string
	Text string
}

func collect(t *testing.T, src *XMLEventSource) []seen {
	t.Helper()
	var out []seen
	for {
		kind, err := src.Next()
		require.NoError(t, err)
		out = append(out, seen{Kind: kind, Name: src.Name(), Text: src.Text()})
		if kind == EndDocument {
			return out
		}
	}
}

func TestXMLEventSource_Events(t *testing.T) {
	doc := `<?xml version="1.0"?>
<!-- comment -->
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:re="http://purl.org/atompub/rank/1.0"><title>a<!-- x -->b<![CDATA[<c>]]></title><re:rank>1</re:rank><link href="h"/></feed>
`
	src, err := NewXMLEventSource(strings.NewReader(doc), "")
	require.NoError(t, err)
	assert.Equal(t, StartDocument, src.Kind())

	got := collect(t, src)

	assert.Equal(t, []seen{
		{Kind: StartTag, Name: "feed"},
		{Kind: StartTag, Name: "title"},
		{Kind: Text, Text: "ab<c>"},
		{Kind: EndTag, Name: "title"},
		{Kind: StartTag, Name: "re:rank"},
		{Kind: Text, Text: "1"},
		{Kind: EndTag, Name: "re:rank"},
		{Kind: StartTag, Name: "link"},
		{Kind: EndTag, Name: "link"},
		{Kind: EndTag, Name: "feed"},
		{Kind: EndDocument},
	}, got)

	kind, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, EndDocument, kind)
}

func TestXMLEventSource_Attr(t *testing.T) {
	src, err := NewXMLEventSource(strings.NewReader(`<link xmlns:x="urn:x" x:href="other" href="main"/>`), "")
	require.NoError(t, err)

	kind, err := src.Next()
	require.NoError(t, err)
	require.Equal(t, StartTag, kind)
	href, ok := src.Attr("href")
	assert.True(t, ok)
	assert.Equal(t, "main", href)
	_, ok = src.Attr("rel")
	assert.False(t, ok)

	kind, err = src.Next()
	require.NoError(t, err)
	require.Equal(t, EndTag, kind)
	_, ok = src.Attr("href")
	assert.False(t, ok)
}

func TestXMLEventSource_DeclaredEncoding(t *testing.T) {
	doc := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><feed><entry><title>caf\xe9</title></entry></feed>")
	src, err := NewXMLEventSource(bytes.NewReader(doc), "")
	require.NoError(t, err)

	feed, err := ParseFeed(src)

	require.NoError(t, err)
	assert.Equal(t, "café", *feed.Entries[0].Title)
}

func TestXMLEventSource_ExplicitEncoding(t *testing.T) {
	doc := []byte("<feed><entry><title>na\xefve</title></entry></feed>")
	src, err := NewXMLEventSource(bytes.NewReader(doc), "windows-1252")
	require.NoError(t, err)

	feed, err := ParseFeed(src)

	require.NoError(t, err)
	assert.Equal(t, "naïve", *feed.Entries[0].Title)
}

func TestXMLEventSource_UnknownEncoding(t *testing.T) {
	src, err := NewXMLEventSource(strings.NewReader("<feed/>"), "no-such-charset")

	assert.Error(t, err)
	assert.Nil(t, src)
}

func TestXMLEventSource_SyntaxError(t *testing.T) {
	src, err := NewXMLEventSource(strings.NewReader(`<feed><entry>`), "")
	require.NoError(t, err)

	var lastErr error
	for i := 0; i < 10 && lastErr == nil; i++ {
		_, lastErr = src.Next()
	}

	var structErr *StructuralError
	require.True(t, errors.As(lastErr, &structErr))
	assert.Equal(t, "well-formed XML", structErr.Expected)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestXMLEventSource_ReadError(t *testing.T) {
	src, err := NewXMLEventSource(io.MultiReader(strings.NewReader("<feed>"), failingReader{}), "")
	require.NoError(t, err)

	feed, err := ParseFeed(src)

	assert.Nil(t, feed)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	var structErr *StructuralError
	assert.False(t, errors.As(err, &structErr))
}
