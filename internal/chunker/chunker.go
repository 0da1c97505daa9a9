// Package chunker splits entry text into token-bounded chunks for
// embedding. Token counts are estimated with a cheap bytes/4 proxy; the
// same estimator is used to measure chunks and to decide split points,
// so chunk boundaries only depend on the estimator being internally
// consistent, not on matching any real tokenizer.
package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"mentor-rag/internal/models"
)

const (
	DefaultMinTokens = 500
	DefaultMaxTokens = 800

	// rough heuristic for English prose, same as the ingestion scripts
	// this replaced
	bytesPerToken = 4

	// separator used when rejoining paragraph units into a chunk
	paragraphSeparator = "\n\n"
)

// ErrInvalidPolicy is returned for unusable size bounds. It is a
// configuration error and is raised before any entry is processed.
var ErrInvalidPolicy = errors.New("invalid chunking policy")

// Policy holds the target chunk size bounds in estimated tokens.
type Policy struct {
	MinTokens int
	MaxTokens int
}

func DefaultPolicy() Policy {
	return Policy{MinTokens: DefaultMinTokens, MaxTokens: DefaultMaxTokens}
}

func (p Policy) Validate() error {
	if p.MinTokens <= 0 || p.MaxTokens <= 0 {
		return fmt.Errorf("%w: bounds must be positive, got min=%d max=%d", ErrInvalidPolicy, p.MinTokens, p.MaxTokens)
	}
	if p.MinTokens > p.MaxTokens {
		return fmt.Errorf("%w: min=%d exceeds max=%d", ErrInvalidPolicy, p.MinTokens, p.MaxTokens)
	}
	return nil
}

// EstimateTokens approximates the token count of text. Monotonic in
// text length and deterministic.
func EstimateTokens(text string) int {
	return len(text) / bytesPerToken
}

// boundary strategies, tried in priority order; each splits text into
// smaller units at a natural break. A level past the end of this list
// means a hard character cut.
var strategies = []func(string) []string{
	splitParagraphs,
	splitSentences,
	splitWords,
}

type unit struct {
	text  string
	level int // strategy index that produced this unit
}

// Split divides text into an ordered sequence of chunks, each within
// the policy's token bounds where natural boundaries permit. Empty and
// whitespace-only text yields no chunks. The whole text is returned as
// a single chunk when it already fits.
func Split(text string, p Policy) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if EstimateTokens(text) <= p.MaxTokens {
		return []string{text}
	}

	// work queue of boundary units, refined in place when a unit is too
	// large or when a finer boundary lets the current chunk reach the
	// minimum size
	queue := make([]unit, 0, 16)
	for _, para := range splitParagraphs(text) {
		queue = append(queue, unit{text: para, level: 0})
	}

	var chunks []string
	var cur []string
	curBytes := 0

	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, strings.Join(cur, ""))
			cur = cur[:0]
			curBytes = 0
		}
	}

	for i := 0; i < len(queue); i++ {
		u := queue[i]

		// a unit that alone exceeds the budget is refined with the next
		// strategy (hard cut as last resort), guaranteeing progress
		if EstimateTokens(u.text) > p.MaxTokens {
			queue = requeue(queue, i, refine(u, p.MaxTokens))
			i--
			continue
		}

		sep := separatorFor(u.level)
		joined := curBytes + len(u.text)
		if len(cur) > 0 {
			joined += len(sep)
		}

		if len(cur) > 0 && joined/bytesPerToken > p.MaxTokens {
			// closing below the minimum: try a finer boundary inside
			// this unit so part of it can top the chunk up
			if curBytes/bytesPerToken < p.MinTokens {
				if subs := refine(u, p.MaxTokens); len(subs) > 1 {
					queue = requeue(queue, i, subs)
					i--
					continue
				}
			}
			flush()
		}

		if len(cur) > 0 {
			cur = append(cur, sep)
			curBytes += len(sep)
		}
		cur = append(cur, u.text)
		curBytes += len(u.text)
	}
	flush()

	return chunks
}

// separatorFor is the join string matching the boundary that produced a
// unit: paragraph breaks stay blank lines, finer units rejoin with a
// space.
func separatorFor(level int) string {
	if level == 0 {
		return paragraphSeparator
	}
	return " "
}

// refine splits a unit with the next boundary strategy. Beyond the last
// strategy it falls back to a hard cut at the token budget.
func refine(u unit, maxTokens int) []unit {
	next := u.level + 1
	if next >= len(strategies) {
		return toUnits(hardSplit(u.text, maxTokens), next)
	}
	parts := strategies[next](u.text)
	if len(parts) <= 1 {
		// no boundary at this level, keep descending
		return refine(unit{text: u.text, level: next}, maxTokens)
	}
	return toUnits(parts, next)
}

func toUnits(parts []string, level int) []unit {
	units := make([]unit, len(parts))
	for i, p := range parts {
		units[i] = unit{text: p, level: level}
	}
	return units
}

// requeue replaces queue[i] with subs, keeping order.
func requeue(queue []unit, i int, subs []unit) []unit {
	out := make([]unit, 0, len(queue)+len(subs)-1)
	out = append(out, queue[:i]...)
	out = append(out, subs...)
	out = append(out, queue[i+1:]...)
	return out
}

func splitParagraphs(text string) []string {
	var parts []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// splitSentences keeps the terminating period with its sentence so the
// chunk texts still cover the input.
func splitSentences(text string) []string {
	var parts []string
	for _, s := range strings.SplitAfter(text, ". ") {
		s = strings.TrimSpace(s)
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

func splitWords(text string) []string {
	return strings.Fields(text)
}

// hardSplit cuts text into pieces at the byte budget, on rune
// boundaries. Last resort for degenerate input with no usable
// boundaries; never fails and always makes progress.
func hardSplit(text string, maxTokens int) []string {
	budget := maxTokens * bytesPerToken
	if budget < bytesPerToken {
		budget = bytesPerToken
	}
	var parts []string
	for len(text) > budget {
		cut := budget
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = budget
		}
		parts = append(parts, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

// ChunkEntry splits an entry's text and stamps the entry's metadata on
// every chunk. Indices are contiguous from 0 and every chunk carries
// the final total. Entries with empty text produce no chunks.
func ChunkEntry(e models.Entry, p Policy) ([]models.Chunk, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	parts := Split(e.Text, p)
	if len(parts) == 0 {
		return nil, nil
	}

	chunks := make([]models.Chunk, len(parts))
	for i, text := range parts {
		chunks[i] = models.Chunk{
			ID:          fmt.Sprintf("%s_chunk_%d", e.ID, i),
			Text:        text,
			ChunkIndex:  i,
			TotalChunks: len(parts),
			EntryID:     e.ID,
			Date:        e.Date,
			Tags:        e.Tags,
			SourceType:  e.SourceType,
			Title:       e.Title,
			Categories:  e.Categories,
			PhotoCount:  e.PhotoCount,
			Tradition:   e.Tradition,
		}
	}
	return chunks, nil
}
