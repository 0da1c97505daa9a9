package parser

import (
	"encoding/xml"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"mentor-rag/internal/models"
)

// WXR namespaces, fixed by the WordPress export format
const (
	nsWP      = "http://wordpress.org/export/1.2/"
	nsContent = "http://purl.org/rss/1.0/modules/content/"
)

type wxrCategory struct {
	Domain   string `xml:"domain,attr"`
	NiceName string `xml:"nicename,attr"`
	Value    string `xml:",chardata"`
}

type wxrItem struct {
	Title      string        `xml:"title"`
	PubDate    string        `xml:"pubDate"`
	PostID     string        `xml:"http://wordpress.org/export/1.2/ post_id"`
	PostDate   string        `xml:"http://wordpress.org/export/1.2/ post_date"`
	PostType   string        `xml:"http://wordpress.org/export/1.2/ post_type"`
	Status     string        `xml:"http://wordpress.org/export/1.2/ status"`
	Content    string        `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
	Categories []wxrCategory `xml:"category"`
}

type wxrDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []wxrItem `xml:"item"`
	} `xml:"channel"`
}

// ParseWordPressExport reads a WordPress WXR/XML export and returns the
// published posts as blog-source entries. HTML is stripped to plain
// text with paragraph structure preserved, and the post title is
// prepended to the body for retrieval context.
func ParseWordPressExport(path string) ([]models.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}

	// WordPress exports sometimes contain control characters that are
	// invalid in XML 1.0, scrub them before decoding
	cleaned := scrubInvalidXMLChars(string(data))

	var doc wxrDocument
	if err := xml.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse WXR export: %w", err)
	}

	log.Info().Int("items", len(doc.Channel.Items)).Str("file", path).Msg("Parsed WXR export")

	var entries []models.Entry
	for _, item := range doc.Channel.Items {
		entry, ok := parseWordPressItem(item)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	log.Info().Int("posts", len(entries)).Msg("Extracted published posts")
	return entries, nil
}

// parseWordPressItem converts one WXR item, skipping anything that is
// not a published post (pages, attachments, drafts).
func parseWordPressItem(item wxrItem) (models.Entry, bool) {
	if item.PostType != "post" || item.Status != "publish" {
		return models.Entry{}, false
	}

	date := item.PostDate
	if date == "" {
		date = item.PubDate
	}

	var categories, tags []string
	for _, c := range item.Categories {
		name := strings.TrimSpace(c.Value)
		if name == "" {
			name = c.NiceName
		}
		switch c.Domain {
		case "category":
			categories = append(categories, name)
		case "post_tag":
			tags = append(tags, name)
		}
	}

	text := StripHTML(item.Content)
	if title := strings.TrimSpace(item.Title); title != "" && text != "" {
		text = title + "\n\n" + text
	}

	return models.Entry{
		ID:         "wp_" + item.PostID,
		Text:       text,
		Date:       date,
		Tags:       tags,
		SourceType: models.SourceBlog,
		Title:      strings.TrimSpace(item.Title),
		Categories: categories,
	}, true
}

// block-level elements that get paragraph breaks around their text
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true,
	atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Blockquote: true, atom.Pre: true, atom.Tr: true,
}

// elements whose content is dropped entirely
var skipAtoms = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true,
	atom.Nav: true, atom.Header: true, atom.Footer: true,
}

var (
	multiSpaceRe = regexp.MustCompile(`[ \t]+`)
	multiBlankRe = regexp.MustCompile(`\n{3,}`)
)

// StripHTML converts HTML content to plain text while preserving
// paragraph structure. Malformed HTML is tolerated; the html package
// parses anything.
func StripHTML(content string) string {
	if content == "" {
		return ""
	}

	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		// html.Parse only fails on reader errors, not bad markup
		return strings.TrimSpace(content)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipAtoms[n.DataAtom] {
			return
		}
		isBlock := n.Type == html.ElementNode && blockAtoms[n.DataAtom]
		if isBlock {
			sb.WriteString("\n\n")
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if isBlock {
			sb.WriteString("\n\n")
		}
	}
	walk(root)

	text := sb.String()
	text = multiSpaceRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = multiBlankRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// scrubInvalidXMLChars removes characters the XML 1.0 spec does not
// allow (control characters except tab, newline, carriage return).
func scrubInvalidXMLChars(content string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == 0x9 || r == 0xA || r == 0xD:
			return r
		case r >= 0x20 && r <= 0xD7FF:
			return r
		case r >= 0xE000 && r <= 0xFFFD:
			return r
		case r >= 0x10000 && r <= 0x10FFFF:
			return r
		}
		return -1
	}, content)
}
