// Package submit sends validated configuration requests to the engine. One
// submission may be outstanding at a time; while it is, the submitter is in
// the Submitting state and rejects further attempts. Every completed
// attempt is recorded in the configuration journal best-effort.
package submit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pythia-trading/pythia-console/internal/backend"
	"github.com/pythia-trading/pythia-console/internal/journal"
	"github.com/pythia-trading/pythia-console/internal/metrics"
	"github.com/pythia-trading/pythia-console/internal/models"
)

// State names the submitter's position in its two-state machine.
type State string

const (
	StateReady      State = "ready"
	StateSubmitting State = "submitting"
)

// ErrSubmissionInFlight is returned while a submission is outstanding.
var ErrSubmissionInFlight = errors.New("a submission is already in flight")

// Sender posts one configuration request.
type Sender interface {
	SubmitConfiguration(ctx context.Context, req models.ConfigurationRequest) (*models.ConfigureResponse, error)
}

// SendFunc adapts a function to the Sender interface.
type SendFunc func(ctx context.Context, req models.ConfigurationRequest) (*models.ConfigureResponse, error)

// SubmitConfiguration implements Sender.
func (f SendFunc) SubmitConfiguration(ctx context.Context, req models.ConfigurationRequest) (*models.ConfigureResponse, error) {
	return f(ctx, req)
}

// Result is the outcome indicator of the most recent submission.
type Result struct {
	OK      bool
	Message string
	At      time.Time
}

// Submitter serializes configuration submissions.
type Submitter struct {
	sender  Sender
	journal journal.Journal
	metrics *metrics.Registry

	mu         sync.Mutex
	submitting bool
	last       *Result
}

// New builds a submitter. A nil journal disables auditing.
func New(sender Sender, j journal.Journal, reg *metrics.Registry) *Submitter {
	if j == nil {
		j = journal.Nop{}
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Submitter{
		sender:  sender,
		journal: j,
		metrics: reg,
	}
}

// State reports Ready or Submitting.
func (s *Submitter) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return StateSubmitting
	}
	return StateReady
}

// Last returns the most recent submission outcome, if any.
func (s *Submitter) Last() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

// Submit posts the request and returns the engine's acknowledgement or the
// structured failure. The same request may be submitted again after
// resolution; the engine re-applies identical values without extra effect.
func (s *Submitter) Submit(ctx context.Context, req models.ConfigurationRequest) (*models.ConfigureResponse, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	s.submitting = true
	s.mu.Unlock()

	ack, err := s.sender.SubmitConfiguration(ctx, req)
	outcome, message := classify(ack, err)

	entry := journal.NewEntry(req.StrategyID, req.Parameters, outcome, message)
	if jerr := s.journal.Record(ctx, entry); jerr != nil {
		// The audit trail must never fail a submission.
		log.Warn().Err(jerr).Msg("Failed to journal configuration submission")
	}
	s.metrics.RecordSubmission(outcome)

	s.mu.Lock()
	s.submitting = false
	s.last = &Result{OK: err == nil, Message: message, At: time.Now()}
	s.mu.Unlock()

	if err != nil {
		log.Warn().
			Err(err).
			Str("strategy", req.StrategyID).
			Msg("Configuration submission failed")
		return nil, err
	}

	log.Info().
		Str("strategy", req.StrategyID).
		Int("params", len(req.Parameters)).
		Msg("Configuration submitted")
	return ack, nil
}

// classify maps a submission outcome to its journal/metrics label and the
// message shown to the operator.
func classify(ack *models.ConfigureResponse, err error) (string, string) {
	if err == nil {
		if ack != nil && ack.Message != "" {
			return journal.OutcomeSuccess, ack.Message
		}
		return journal.OutcomeSuccess, "configuration applied"
	}

	var subErr *backend.SubmissionError
	if errors.As(err, &subErr) && subErr.StatusCode != 0 {
		return journal.OutcomeRejected, subErr.Error()
	}
	return journal.OutcomeError, err.Error()
}
