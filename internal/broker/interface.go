package broker

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/quantrail/stratforge/internal/models"
)

// OrderService defines the interface for the upstream order service that
// receives strategy submissions. It transmits snapshots and reports their
// fate; it does not place exchange orders itself.
type OrderService interface {
	// SubmitStrategy hands a strategy snapshot to the order service.
	SubmitStrategy(ctx context.Context, snapshot *models.StrategySnapshot) (*SubmissionReceipt, error)

	// GetSubmissionStatus reports the current state of a submission.
	GetSubmissionStatus(ctx context.Context, receiptID string) (*SubmissionStatus, error)

	// Ping checks that the order service is reachable.
	Ping(ctx context.Context) error
}

// SubmissionState is the order service's view of a submission.
type SubmissionState string

const (
	// SubmissionPending means the service is still validating the strategy
	SubmissionPending SubmissionState = "pending"
	// SubmissionAccepted means the strategy was accepted for deployment
	SubmissionAccepted SubmissionState = "accepted"
	// SubmissionRejected means the service refused the strategy
	SubmissionRejected SubmissionState = "rejected"
)

// Valid reports whether s is a state this client understands.
func (s SubmissionState) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionAccepted, SubmissionRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether the submission needs no further polling.
func (s SubmissionState) Terminal() bool {
	return s == SubmissionAccepted || s == SubmissionRejected
}

// SubmissionReceipt is returned when the order service takes a submission.
type SubmissionReceipt struct {
	ID     string          `json:"id"`
	Status SubmissionState `json:"status"`
}

// SubmissionStatus is the polled state of a previously submitted strategy.
type SubmissionStatus struct {
	ReceiptID string          `json:"receipt_id"`
	State     SubmissionState `json:"state"`
	Reasons   []string        `json:"reasons,omitempty"`
}

// IsPermanentAPIError checks if an error is a permanent API error that no
// amount of retrying will fix. 4xx responses qualify, except 429.
func IsPermanentAPIError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Status != 429
	}
	return false
}

// Ensure HTTPClient implements OrderService at compile time.
var _ OrderService = (*HTTPClient)(nil)

// CircuitBreakerClient wraps an OrderService with circuit breaker functionality
type CircuitBreakerClient struct {
	service OrderService
	breaker *gobreaker.CircuitBreaker
}

// execBreaker is a generic helper for circuit breaker wrapper methods
func execBreaker[T any](
	breaker *gobreaker.CircuitBreaker,
	service OrderService,
	fn func(OrderService) (T, error),
) (T, error) {
	var zero T
	res, err := breaker.Execute(func() (interface{}, error) { return fn(service) })
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	v, ok := res.(T)
	if !ok {
		return zero, errors.New("circuit breaker: type assertion failed")
	}
	return v, nil
}

// CircuitBreakerSettings configures circuit breaker behavior
type CircuitBreakerSettings struct {
	MaxRequests  uint32        // Max requests when half-open
	Interval     time.Duration // Reset counts interval
	Timeout      time.Duration // Open circuit duration
	MinRequests  uint32        // Min requests before tripping
	FailureRatio float64       // Failure ratio threshold
}

// NewCircuitBreakerClient creates a CircuitBreakerClient with sensible defaults
func NewCircuitBreakerClient(service OrderService, logger *logrus.Logger) *CircuitBreakerClient {
	return NewCircuitBreakerClientWithSettings(service, logger, CircuitBreakerSettings{
		MaxRequests:  3,                // Allow 3 requests when half-open
		Interval:     60 * time.Second, // Reset counts every minute
		Timeout:      30 * time.Second, // Open circuit for 30 seconds
		MinRequests:  5,                // Minimum requests before tripping
		FailureRatio: 0.6,              // Trip if 60% failure rate
	})
}

// NewCircuitBreakerClientWithSettings creates a CircuitBreakerClient with custom settings
func NewCircuitBreakerClientWithSettings(
	service OrderService,
	logger *logrus.Logger,
	settings CircuitBreakerSettings,
) *CircuitBreakerClient {
	if logger == nil {
		logger = logrus.New()
	}
	gbSettings := gobreaker.Settings{
		Name:        "OrderServiceCircuitBreaker",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}

	return &CircuitBreakerClient{
		service: service,
		breaker: gobreaker.NewCircuitBreaker(gbSettings),
	}
}

// SubmitStrategy wraps the underlying service call with circuit breaker
func (c *CircuitBreakerClient) SubmitStrategy(
	ctx context.Context,
	snapshot *models.StrategySnapshot,
) (*SubmissionReceipt, error) {
	return execBreaker(c.breaker, c.service, func(s OrderService) (*SubmissionReceipt, error) {
		return s.SubmitStrategy(ctx, snapshot)
	})
}

// GetSubmissionStatus wraps the underlying service call with circuit breaker
func (c *CircuitBreakerClient) GetSubmissionStatus(
	ctx context.Context,
	receiptID string,
) (*SubmissionStatus, error) {
	return execBreaker(c.breaker, c.service, func(s OrderService) (*SubmissionStatus, error) {
		return s.GetSubmissionStatus(ctx, receiptID)
	})
}

// Ping wraps the underlying service call with circuit breaker
func (c *CircuitBreakerClient) Ping(ctx context.Context) error {
	_, err := execBreaker(c.breaker, c.service, func(s OrderService) (struct{}, error) {
		return struct{}{}, s.Ping(ctx)
	})
	return err
}

// Ensure CircuitBreakerClient implements OrderService at compile time.
var _ OrderService = (*CircuitBreakerClient)(nil)
