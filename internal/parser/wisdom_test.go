package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor-rag/internal/models"
)

func TestParseWisdomFileMarkdown(t *testing.T) {
	path := writeTempFile(t, "dhammapada.md", `# Dhammapada

## Twin Verses

Mind precedes all mental states. Mind is their chief.

Speak or act with a pure mind and happiness follows.
`)

	entry, err := ParseWisdomFile(path, "Buddhism")

	require.NoError(t, err)
	assert.Equal(t, models.SourceWisdom, entry.SourceType)
	assert.Equal(t, "dhammapada", entry.Title)
	assert.Equal(t, "Buddhism", entry.Tradition)
	assert.True(t, len(entry.ID) > len("wisdom_"))
	assert.Contains(t, entry.Text, "Mind precedes all mental states.")
	assert.Contains(t, entry.Text, "happiness follows.")
	assert.NotContains(t, entry.Text, "#")
}

func TestParseWisdomFilePlainText(t *testing.T) {
	path := writeTempFile(t, "upanishad.txt", "  That thou art.\n")

	entry, err := ParseWisdomFile(path, "Advaita Vedanta")

	require.NoError(t, err)
	assert.Equal(t, "That thou art.", entry.Text)
	assert.Equal(t, "upanishad", entry.Title)
	assert.Equal(t, "Advaita Vedanta", entry.Tradition)
}

func TestParseWisdomFileUnsupportedFormat(t *testing.T) {
	path := writeTempFile(t, "texts.xlsx", "not a real spreadsheet")

	_, err := ParseWisdomFile(path, "")
	assert.ErrorContains(t, err, "unsupported wisdom file format")
}

func TestParseWisdomFileDistinctIDs(t *testing.T) {
	path := writeTempFile(t, "verse.txt", "A single verse.")

	first, err := ParseWisdomFile(path, "")
	require.NoError(t, err)
	second, err := ParseWisdomFile(path, "")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}
