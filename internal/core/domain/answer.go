package domain

const (
	NoContextAnswer     = "No relevant information found in the document."
	LowConfidenceAnswer = "The information is not clearly available in the document."
	ErrorAnswerPrefix   = "Error processing question: "
)

type AnswerSpan struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

type Rationale struct {
	SupportingEvidence []string `json:"supporting_evidence"`
	ClauseReferences   []string `json:"clause_references"`
}

type AnswerRecord struct {
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Confidence float64   `json:"confidence"`
	Rationale  Rationale `json:"rationale"`
}

// Answers flattens records into the minimal response shape.
func Answers(records []AnswerRecord) []string {
	out := make([]string, 0, len(records))
	for _, record := range records {
		out = append(out, record.Answer)
	}
	return out
}
