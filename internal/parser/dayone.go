// Package parser reads journal, blog and wisdom-text exports into
// entries for chunking and ingestion.
package parser

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"mentor-rag/internal/models"
)

type dayOnePhoto struct {
	Identifier string `json:"identifier"`
}

type dayOneEntry struct {
	UUID         string        `json:"uuid"`
	CreationDate string        `json:"creationDate"`
	Text         string        `json:"text"`
	Tags         []string      `json:"tags"`
	Photos       []dayOnePhoto `json:"photos"`
}

type dayOneExport struct {
	Entries []dayOneEntry `json:"entries"`
}

// ParseDayOneExport reads a DayOne JSON export and returns its entries
// as journal-source entries. Entries with no text are kept here and
// dropped later by the chunker, matching how empty entries never reach
// the store.
func ParseDayOneExport(path string) ([]models.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}

	var export dayOneExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse DayOne export: %w", err)
	}

	log.Info().Int("entries", len(export.Entries)).Str("file", path).Msg("Parsed DayOne export")

	entries := make([]models.Entry, 0, len(export.Entries))
	for _, e := range export.Entries {
		entries = append(entries, models.Entry{
			ID:         e.UUID,
			Text:       e.Text,
			Date:       e.CreationDate,
			Tags:       e.Tags,
			SourceType: models.SourceJournal,
			PhotoCount: len(e.Photos),
		})
	}
	return entries, nil
}
