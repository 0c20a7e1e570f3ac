package resilience

import (
	"context"
	"errors"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/docqa/internal/core/domain"
)

// ErrorClassification tells the executor whether to try again and whether the
// failure counts against the circuit breaker.
type ErrorClassification struct {
	Retryable     bool
	RecordFailure bool
}

type ErrorClassifier func(err error) ErrorClassification

var (
	notCounted = ErrorClassification{Retryable: false, RecordFailure: false}
	transient  = ErrorClassification{Retryable: true, RecordFailure: true}
	permanent  = ErrorClassification{Retryable: false, RecordFailure: true}
)

// Classify applies the rules shared by every dependency: cancellation is
// neither retried nor recorded, an open breaker and errors matched by
// isTransient are retried, anything else is a recorded permanent failure.
func Classify(err error, isTransient func(error) bool) ErrorClassification {
	switch {
	case err == nil:
		return ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return notCounted
	case IsCircuitOpen(err):
		return transient
	case isTransient != nil && isTransient(err):
		return transient
	default:
		return permanent
	}
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// WrapTemporaryWith tags err with domain.ErrTemporary when classify deems it
// retryable, so adapters can answer 503 instead of 500.
func WrapTemporaryWith(operation string, err error, classify ErrorClassifier) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classify(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func defaultClassifier(error) ErrorClassification {
	return permanent
}
