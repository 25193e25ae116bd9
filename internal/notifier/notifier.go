//go:generate go run go.uber.org/mock/mockgen -source=notifier.go -destination=mocks/mock_notifier.go -package=mocks
package notifier

import (
	"context"
	"errors"

	"listingrelay/internal/domain"
)

// ErrDelivery wraps every failure of a single delivery attempt.
var ErrDelivery = errors.New("delivery failed")

// Sender makes exactly one delivery attempt per call.
type Sender interface {
	Send(ctx context.Context, p domain.Payload) error
}
