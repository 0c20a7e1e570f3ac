package domain

type SimilarityMetric string

const (
	MetricCosine       SimilarityMetric = "cosine"
	MetricInnerProduct SimilarityMetric = "ip"
	MetricL2           SimilarityMetric = "l2"
)

type RetrievalResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// RetrievedContext is the assembled answering context for one question.
// Results holds every search hit, Included how many of them made it into Text.
type RetrievedContext struct {
	Text     string            `json:"text"`
	Results  []RetrievalResult `json:"results"`
	Included int               `json:"included"`
	Words    int               `json:"words"`
}
