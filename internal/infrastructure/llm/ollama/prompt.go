package ollama

import "fmt"

func buildExtractionPrompt(question, passage string) string {
	return fmt.Sprintf(`You are an extractive question answering system.
Copy the shortest exact span from the context that answers the question.
Return strict JSON object with keys:
answer (string, copied verbatim from context, empty if the context does not answer), score (number from 0 to 1).
No markdown, no extra keys.

Question:
%s

Context:
%s
`, question, passage)
}
