package domain

type ChunkStrategy string

const (
	ChunkByCharacters ChunkStrategy = "characters"
	ChunkByWords      ChunkStrategy = "words"
)

// Chunk is a contiguous slice of one document. StartOffset is measured in
// runes from the beginning of the cleaned document text.
type Chunk struct {
	ID          int       `json:"id"`
	Text        string    `json:"text"`
	StartOffset int       `json:"start_offset"`
	Embedding   []float32 `json:"-"`
}
