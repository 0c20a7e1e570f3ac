package domain

// DocumentSource names where a document comes from. Inline text wins over URL.
type DocumentSource struct {
	URL  string `json:"url,omitempty"`
	Text string `json:"text,omitempty"`
}

// SourceDocument is a downloaded, not yet extracted document.
type SourceDocument struct {
	Name     string
	MimeType string
	Body     []byte
}
