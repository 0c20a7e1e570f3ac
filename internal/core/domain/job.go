package domain

import "time"

type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
)

// JobRequest is one asynchronous batch of questions over one document.
type JobRequest struct {
	DocumentURL  string
	DocumentText string
	Questions    []string
}

type Job struct {
	ID          string         `json:"id"`
	DocumentURL string         `json:"document_url,omitempty"`
	StoragePath string         `json:"-"`
	Questions   []string       `json:"questions"`
	Answers     []AnswerRecord `json:"answers,omitempty"`
	Status      JobStatus      `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
