// Package orders coordinates draft submission with the upstream order
// service: the validation gate, the snapshot handoff, and status polling
// until the service accepts or rejects the strategy.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quantrail/stratforge/internal/broker"
	"github.com/quantrail/stratforge/internal/models"
	"github.com/quantrail/stratforge/internal/storage"
)

// Config contains configuration for the submission manager.
type Config struct {
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// DefaultConfig is the default configuration for the submission manager.
var DefaultConfig = Config{
	PollInterval: 2 * time.Second,
	PollTimeout:  45 * time.Second,
}

// Manager drives strategy submission end to end.
type Manager struct {
	client broker.OrderService
	store  storage.Interface
	logger *logrus.Logger
	specs  models.IndexSpecs
	config Config
}

// NewManager creates a new submission manager instance.
func NewManager(
	client broker.OrderService,
	store storage.Interface,
	logger *logrus.Logger,
	specs models.IndexSpecs,
	config ...Config,
) *Manager {
	cfg := DefaultConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	// Guard against nil logger
	if logger == nil {
		logger = logrus.New()
	}
	if specs == nil {
		specs = models.DefaultIndexSpecs()
	}

	// Validate and clamp config values
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig.PollInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultConfig.PollTimeout
	}
	if cfg.PollInterval >= cfg.PollTimeout {
		cfg.PollInterval = DefaultConfig.PollInterval
		cfg.PollTimeout = DefaultConfig.PollTimeout
	}

	// Validate required dependencies (fail fast to avoid later panics)
	if client == nil {
		panic("orders.NewManager: client must not be nil")
	}
	if store == nil {
		panic("orders.NewManager: store must not be nil")
	}

	return &Manager{
		client: client,
		store:  store,
		logger: logger,
		specs:  specs,
		config: cfg,
	}
}

// Submit runs the draft through the submission gate, hands the snapshot to
// the order service, and polls until the service decides. Accepted drafts
// are deleted from the store; rejected drafts return to preview for
// amendment. A polling timeout leaves the draft submitted with a pending
// result so the outcome can be checked later.
func (m *Manager) Submit(ctx context.Context, draftID string) (*models.SubmissionResult, error) {
	draft, ok := m.store.GetDraftByID(draftID)
	if !ok {
		return nil, storage.ErrDraftNotFound
	}

	snapshot, err := draft.Submit(m.specs)
	if err != nil {
		// Gate failures surface as-is; the draft never moved.
		return nil, err
	}
	if err := m.store.SaveDraft(draft); err != nil {
		return nil, fmt.Errorf("saving submitted draft: %w", err)
	}

	log := m.logger.WithFields(logrus.Fields{
		"draft_id": draft.ID,
		"strategy": draft.Strategy.Name,
	})
	log.Info("Submitting strategy to order service")

	receipt, err := m.client.SubmitStrategy(ctx, snapshot)
	if err != nil {
		if broker.IsPermanentAPIError(err) {
			// The service refused the payload outright.
			log.WithError(err).Warn("Order service rejected the submission")
			if reopenErr := m.reopenDraft(&draft); reopenErr != nil {
				return nil, reopenErr
			}
			return &models.SubmissionResult{
				Status:  string(broker.SubmissionRejected),
				Reasons: []string{err.Error()},
			}, nil
		}
		// Transport trouble: the strategy may never have arrived. Return
		// the draft to preview so it can be resubmitted.
		log.WithError(err).Error("Submission handoff failed")
		if reopenErr := m.reopenDraft(&draft); reopenErr != nil {
			return nil, reopenErr
		}
		return nil, fmt.Errorf("submitting strategy: %w", err)
	}

	log = log.WithField("receipt_id", receipt.ID)
	log.Info("Order service took the submission")

	if receipt.Status.Terminal() {
		return m.settle(log, &draft, receipt.ID, receipt.Status, nil)
	}

	return m.pollSubmission(ctx, log, &draft, receipt.ID)
}

// pollSubmission polls the submission status until it settles or the
// polling budget runs out.
func (m *Manager) pollSubmission(
	ctx context.Context,
	log *logrus.Entry,
	draft *models.Draft,
	receiptID string,
) (*models.SubmissionResult, error) {
	pollCtx, cancel := context.WithTimeout(ctx, m.config.PollTimeout)
	defer cancel()

	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-pollCtx.Done():
			// The draft stays submitted; the receipt lets the outcome be
			// checked once the service catches up.
			log.Warn("Submission polling timed out, leaving draft submitted")
			return &models.SubmissionResult{
				ReceiptID: receiptID,
				Status:    string(broker.SubmissionPending),
			}, nil
		case <-ticker.C:
			status, err := m.client.GetSubmissionStatus(pollCtx, receiptID)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					continue
				}
				log.WithError(err).Warn("Submission status check failed")
				continue
			}
			if !status.State.Terminal() {
				continue
			}
			return m.settle(log, draft, receiptID, status.State, status.Reasons)
		}
	}
}

// settle applies a terminal submission state to the draft and store.
func (m *Manager) settle(
	log *logrus.Entry,
	draft *models.Draft,
	receiptID string,
	state broker.SubmissionState,
	reasons []string,
) (*models.SubmissionResult, error) {
	switch state {
	case broker.SubmissionAccepted:
		log.Info("Strategy accepted by order service")
		if err := m.store.DeleteDraft(draft.ID); err != nil {
			log.WithError(err).Error("Failed to delete accepted draft")
		}
		return &models.SubmissionResult{
			ReceiptID: receiptID,
			Status:    string(broker.SubmissionAccepted),
		}, nil
	case broker.SubmissionRejected:
		log.WithField("reasons", reasons).Warn("Strategy rejected by order service")
		if err := m.reopenDraft(draft); err != nil {
			return nil, err
		}
		return &models.SubmissionResult{
			ReceiptID: receiptID,
			Status:    string(broker.SubmissionRejected),
			Reasons:   reasons,
		}, nil
	default:
		return nil, fmt.Errorf("cannot settle submission in state %q", state)
	}
}

// reopenDraft returns a submitted draft to preview and persists it.
func (m *Manager) reopenDraft(draft *models.Draft) error {
	if err := draft.Reopen(); err != nil {
		return fmt.Errorf("reopening draft: %w", err)
	}
	if err := m.store.SaveDraft(*draft); err != nil {
		return fmt.Errorf("saving reopened draft: %w", err)
	}
	return nil
}
