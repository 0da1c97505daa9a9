package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor-rag/internal/models"
)

const wxrSample = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"
	xmlns:content="http://purl.org/rss/1.0/modules/content/"
	xmlns:wp="http://wordpress.org/export/1.2/"
	xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel>
	<title>Test Blog</title>
	<item>
		<title>On Letting Go</title>
		<pubDate>Mon, 15 Jan 2024 10:00:00 +0000</pubDate>
		<wp:post_id>42</wp:post_id>
		<wp:post_date>2024-01-15 10:00:00</wp:post_date>
		<wp:post_type>post</wp:post_type>
		<wp:status>publish</wp:status>
		<content:encoded><![CDATA[<p>First paragraph about letting go.</p><p>Second paragraph with <strong>emphasis</strong>.</p>]]></content:encoded>
		<category domain="category" nicename="practice">Practice</category>
		<category domain="post_tag" nicename="attachment">attachment</category>
	</item>
	<item>
		<title>Draft Post</title>
		<wp:post_id>43</wp:post_id>
		<wp:post_type>post</wp:post_type>
		<wp:status>draft</wp:status>
		<content:encoded><![CDATA[<p>Unpublished.</p>]]></content:encoded>
	</item>
	<item>
		<title>About</title>
		<wp:post_id>44</wp:post_id>
		<wp:post_type>page</wp:post_type>
		<wp:status>publish</wp:status>
		<content:encoded><![CDATA[<p>A page, not a post.</p>]]></content:encoded>
	</item>
</channel>
</rss>`

func TestParseWordPressExport(t *testing.T) {
	path := writeTempFile(t, "export.xml", wxrSample)

	entries, err := ParseWordPressExport(path)

	require.NoError(t, err)
	// drafts and pages are skipped
	require.Len(t, entries, 1)

	post := entries[0]
	assert.Equal(t, "wp_42", post.ID)
	assert.Equal(t, models.SourceBlog, post.SourceType)
	assert.Equal(t, "On Letting Go", post.Title)
	assert.Equal(t, "2024-01-15 10:00:00", post.Date)
	assert.Equal(t, []string{"Practice"}, post.Categories)
	assert.Equal(t, []string{"attachment"}, post.Tags)

	// title is prepended and HTML stripped with paragraphs preserved
	assert.True(t, strings.HasPrefix(post.Text, "On Letting Go\n\n"))
	assert.Contains(t, post.Text, "First paragraph about letting go.")
	assert.Contains(t, post.Text, "Second paragraph with emphasis.")
	assert.NotContains(t, post.Text, "<p>")
	assert.NotContains(t, post.Text, "<strong>")
}

func TestParseWordPressExportFallsBackToPubDate(t *testing.T) {
	sample := strings.Replace(wxrSample, "<wp:post_date>2024-01-15 10:00:00</wp:post_date>", "", 1)
	path := writeTempFile(t, "export.xml", sample)

	entries, err := ParseWordPressExport(path)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Mon, 15 Jan 2024 10:00:00 +0000", entries[0].Date)
}

func TestParseWordPressExportScrubsControlChars(t *testing.T) {
	sample := strings.Replace(wxrSample, "letting go.", "letting\x00 go.", 1)
	path := writeTempFile(t, "export.xml", sample)

	entries, err := ParseWordPressExport(path)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Text, "\x00")
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
		not  []string
	}{
		{
			name: "paragraphs become blank lines",
			in:   "<p>One.</p><p>Two.</p>",
			want: []string{"One.\n\nTwo."},
		},
		{
			name: "script and style dropped",
			in:   "<p>Keep</p><script>alert(1)</script><style>p{}</style>",
			want: []string{"Keep"},
			not:  []string{"alert", "p{}"},
		},
		{
			name: "inline tags flattened",
			in:   "<p>Some <em>emphasis</em> and a <a href=\"x\">link</a>.</p>",
			want: []string{"Some emphasis and a link."},
		},
		{
			name: "headings and lists keep structure",
			in:   "<h2>Title</h2><ul><li>first</li><li>second</li></ul>",
			want: []string{"Title", "first", "second"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripHTML(tt.in)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			for _, n := range tt.not {
				assert.NotContains(t, got, n)
			}
		})
	}
}

func TestStripHTMLEmpty(t *testing.T) {
	assert.Equal(t, "", StripHTML(""))
}
