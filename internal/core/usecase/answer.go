package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/core/ports"
)

const (
	DefaultConfidenceFloor = 0.1

	negativeConfidence = 0.2
	defaultConfidence  = 0.6
	numericConfidence  = 0.8

	maxEvidence        = 3
	minEvidenceOverlap = 2
)

// Answer outcomes reported to the pipeline observer.
const (
	OutcomeAnswered      = "answered"
	OutcomeNoContext     = "no_context"
	OutcomeLowConfidence = "low_confidence"
	OutcomeError         = "error"
)

var (
	digitPattern  = regexp.MustCompile(`\p{Nd}+`)
	namedClause   = regexp.MustCompile(`(section|clause|article|paragraph)\s+(\d+)`)
	numberedRef   = regexp.MustCompile(`\d+\.\d+`)
	negativeHints = []string{
		"not found",
		"not available",
		"not mentioned",
		"not specified",
		"no relevant information",
	}
)

// AnswerSynthesizer drives one question through
// no-context -> model -> threshold -> rationale. It never fails: model
// errors end up in the answer text.
type AnswerSynthesizer struct {
	extractor ports.AnswerExtractor
	floor     float64
}

func NewAnswerSynthesizer(extractor ports.AnswerExtractor, floor float64) *AnswerSynthesizer {
	if floor < 0 {
		floor = DefaultConfidenceFloor
	}
	return &AnswerSynthesizer{extractor: extractor, floor: floor}
}

func (s *AnswerSynthesizer) Answer(ctx context.Context, question, passage string) domain.AnswerRecord {
	record, _ := s.answer(ctx, question, passage)
	return record
}

func (s *AnswerSynthesizer) answer(ctx context.Context, question, passage string) (domain.AnswerRecord, string) {
	if strings.TrimSpace(passage) == "" {
		return noContextRecord(question), OutcomeNoContext
	}

	span, err := s.extractor.AnswerSpan(ctx, question, passage)
	if err != nil {
		slog.Warn("answer_extraction_failed", "error", err)
		return s.finish(question, ErrorAnswer(err), passage), OutcomeError
	}

	text := strings.TrimSpace(span.Text)
	if text == "" || span.Score < s.floor {
		return s.finish(question, domain.LowConfidenceAnswer, passage), OutcomeLowConfidence
	}
	return s.finish(question, text, passage), OutcomeAnswered
}

// finish builds the rationale from the final answer text, sentinels
// included. Only the no-context path skips it.
func (s *AnswerSynthesizer) finish(question, answer, passage string) domain.AnswerRecord {
	return domain.AnswerRecord{
		Question:   question,
		Answer:     answer,
		Confidence: Confidence(answer),
		Rationale: domain.Rationale{
			SupportingEvidence: SupportingEvidence(answer, passage),
			ClauseReferences:   ClauseReferences(passage),
		},
	}
}

func noContextRecord(question string) domain.AnswerRecord {
	return domain.AnswerRecord{
		Question:   question,
		Answer:     domain.NoContextAnswer,
		Confidence: negativeConfidence,
		Rationale: domain.Rationale{
			SupportingEvidence: []string{},
			ClauseReferences:   []string{},
		},
	}
}

// ErrorAnswer renders a failure as the per-question answer text.
func ErrorAnswer(err error) string {
	return fmt.Sprintf("%s%v", domain.ErrorAnswerPrefix, err)
}

// IsNegativeAnswer reports whether an answer is a sentinel or says the
// information is missing.
func IsNegativeAnswer(answer string) bool {
	trimmed := strings.TrimSpace(answer)
	switch {
	case trimmed == "":
		return true
	case trimmed == domain.NoContextAnswer, trimmed == domain.LowConfidenceAnswer:
		return true
	case strings.HasPrefix(trimmed, domain.ErrorAnswerPrefix):
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, hint := range negativeHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// Confidence is a fixed three-tier heuristic, not a calibrated probability.
// Any Unicode decimal digit puts an answer in the numeric tier.
func Confidence(answer string) float64 {
	switch {
	case IsNegativeAnswer(answer):
		return negativeConfidence
	case digitPattern.MatchString(answer):
		return numericConfidence
	default:
		return defaultConfidence
	}
}

// SupportingEvidence returns up to three passage sentences sharing at least
// two words with the answer, in passage order. Words are the lower-cased
// whitespace-separated fields; punctuation stays attached.
func SupportingEvidence(answer, passage string) []string {
	answerWords := wordSet(answer)
	evidence := make([]string, 0, maxEvidence)
	if len(answerWords) < minEvidenceOverlap {
		return evidence
	}

	for _, sentence := range strings.Split(passage, ".") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		overlap := 0
		for word := range wordSet(sentence) {
			if _, ok := answerWords[word]; ok {
				overlap++
			}
		}
		if overlap >= minEvidenceOverlap {
			evidence = append(evidence, sentence)
			if len(evidence) == maxEvidence {
				break
			}
		}
	}
	return evidence
}

// ClauseReferences finds section/clause/article/paragraph numbers and bare
// N.M references in the context. The result is deduplicated and sorted.
func ClauseReferences(passage string) []string {
	lower := strings.ToLower(passage)
	seen := make(map[string]struct{})
	for _, match := range namedClause.FindAllStringSubmatch(lower, -1) {
		seen[match[1]+" "+match[2]] = struct{}{}
	}
	for _, match := range numberedRef.FindAllString(lower, -1) {
		seen[match] = struct{}{}
	}

	refs := make([]string, 0, len(seen))
	for ref := range seen {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(text)) {
		set[word] = struct{}{}
	}
	return set
}
