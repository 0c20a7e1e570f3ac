package chunking

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kirillkom/docqa/internal/core/domain"
)

// sentenceSnapWindow is how far back from a window end the character policy
// looks for a period to end the chunk on.
const sentenceSnapWindow = 100

type Splitter struct {
	Strategy  domain.ChunkStrategy
	ChunkSize int
	Overlap   int
}

func NewSplitter(strategy domain.ChunkStrategy, chunkSize, overlap int) (*Splitter, error) {
	if strategy == "" {
		strategy = domain.ChunkByWords
	}
	if err := ValidateConfig(strategy, chunkSize, overlap); err != nil {
		return nil, err
	}
	return &Splitter{
		Strategy:  strategy,
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}, nil
}

// ValidateConfig reports size/overlap combinations no policy can chunk with.
func ValidateConfig(strategy domain.ChunkStrategy, chunkSize, overlap int) error {
	switch {
	case strategy != domain.ChunkByCharacters && strategy != domain.ChunkByWords:
		return domain.WrapError(domain.ErrChunkingInput, "validate chunking", fmt.Errorf("unknown strategy %q", strategy))
	case chunkSize <= 0:
		return domain.WrapError(domain.ErrChunkingInput, "validate chunking", fmt.Errorf("chunk size must be positive, got %d", chunkSize))
	case overlap < 0:
		return domain.WrapError(domain.ErrChunkingInput, "validate chunking", fmt.Errorf("overlap must not be negative, got %d", overlap))
	case overlap >= chunkSize:
		return domain.WrapError(domain.ErrChunkingInput, "validate chunking", fmt.Errorf("overlap %d must be smaller than chunk size %d", overlap, chunkSize))
	}
	return nil
}

func (s *Splitter) Split(text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if s.Strategy == domain.ChunkByCharacters {
		return s.splitCharacters([]rune(text))
	}
	return s.splitWords(text)
}

func (s *Splitter) splitCharacters(runes []rune) []domain.Chunk {
	out := make([]domain.Chunk, 0, len(runes)/(s.ChunkSize-s.Overlap)+1)
	for start := 0; start < len(runes); {
		end := start + s.ChunkSize
		if end < len(runes) {
			if period := lastPeriod(runes[start:end]); period >= 0 && start+period > end-sentenceSnapWindow {
				end = start + period + 1
			}
		} else {
			end = len(runes)
		}

		out = appendChunk(out, runes[start:end], start)
		if end == len(runes) {
			break
		}

		next := end - s.Overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return out
}

func (s *Splitter) splitWords(text string) []domain.Chunk {
	words, offsets := fieldsWithOffsets(text)
	if len(words) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	out := make([]domain.Chunk, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := start + s.ChunkSize
		if end > len(words) {
			end = len(words)
		}
		out = append(out, domain.Chunk{
			ID:          len(out),
			Text:        strings.Join(words[start:end], " "),
			StartOffset: offsets[start],
		})
		if end == len(words) {
			break
		}
	}
	return out
}

// appendChunk trims the window and records the offset of its first visible
// rune. A window whose visible text starts where the previous one did
// supersedes it, which keeps offsets strictly increasing.
func appendChunk(out []domain.Chunk, window []rune, windowStart int) []domain.Chunk {
	lead := 0
	for lead < len(window) && unicode.IsSpace(window[lead]) {
		lead++
	}
	text := strings.TrimSpace(string(window[lead:]))
	if text == "" {
		return out
	}

	chunk := domain.Chunk{Text: text, StartOffset: windowStart + lead}
	if n := len(out); n > 0 && out[n-1].StartOffset == chunk.StartOffset {
		chunk.ID = out[n-1].ID
		out[n-1] = chunk
		return out
	}
	chunk.ID = len(out)
	return append(out, chunk)
}

func lastPeriod(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == '.' {
			return i
		}
	}
	return -1
}

func fieldsWithOffsets(text string) ([]string, []int) {
	var (
		words   []string
		offsets []int
		b       strings.Builder
	)
	pos, wordStart := 0, 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			if b.Len() > 0 {
				words = append(words, b.String())
				offsets = append(offsets, wordStart)
				b.Reset()
			}
		} else {
			if b.Len() == 0 {
				wordStart = pos
			}
			b.WriteRune(r)
		}
		pos++
	}
	if b.Len() > 0 {
		words = append(words, b.String())
		offsets = append(offsets, wordStart)
	}
	return words, offsets
}
