package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"mentor-rag/internal/helper"
	"mentor-rag/internal/models"
)

// ParseWisdomFile reads a contemplative reference text (.md, .pdf,
// .docx or .txt) into a single wisdom-source entry. The tradition label
// is supplied by the caller since it is not derivable from the file.
func ParseWisdomFile(filePath, tradition string) (models.Entry, error) {
	var body string
	var err error

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".md", ".markdown":
		body, err = parseMarkdown(filePath)
	case ".pdf":
		body, err = parsePDF(filePath)
	case ".docx":
		body, err = parseDOCX(filePath)
	case ".txt", ".text":
		body, err = parsePlainText(filePath)
	default:
		return models.Entry{}, fmt.Errorf("unsupported wisdom file format: %s", ext)
	}
	if err != nil {
		return models.Entry{}, err
	}

	id, err := helper.GenerateUUID()
	if err != nil {
		return models.Entry{}, err
	}

	title := strings.TrimSuffix(filepath.Base(filePath), ext)
	log.Info().Str("file", filePath).Str("title", title).Msg("Parsed wisdom text")

	return models.Entry{
		ID:         "wisdom_" + id,
		Text:       body,
		SourceType: models.SourceWisdom,
		Title:      title,
		Tradition:  tradition,
	}, nil
}

// parseMarkdown extracts the plain text of a markdown file by walking
// the goldmark AST, keeping paragraph breaks so the chunker can split
// on them.
func parseMarkdown(filePath string) (string, error) {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	var sb strings.Builder
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch n.(type) {
			case *ast.Paragraph, *ast.Heading, *ast.ListItem:
				sb.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk markdown: %w", err)
	}

	return strings.TrimSpace(sb.String()), nil
}

func parsePDF(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		sb.WriteString(strings.TrimSpace(pageText))
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String()), nil
}

func parseDOCX(filePath string) (string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	paragraphs := strings.Split(content, "\n")

	var kept []string
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n"), nil
}

func parsePlainText(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
