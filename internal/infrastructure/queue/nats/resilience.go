package nats

import (
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/docqa/internal/infrastructure/resilience"
)

// connectionErrors are the publish failures a reconnecting client recovers from.
var connectionErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrConnectionReconnecting,
	nats.ErrDisconnected,
}

func classifyNATSError(err error) resilience.ErrorClassification {
	return resilience.Classify(err, func(err error) bool {
		for _, target := range connectionErrors {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	})
}

func wrapTemporaryIfNeeded(err error) error {
	return resilience.WrapTemporaryWith("nats publish", err, classifyNATSError)
}
