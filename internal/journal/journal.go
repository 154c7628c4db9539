// Package journal records every configuration submission attempt and its
// outcome. The engine applies configurations without remembering who asked;
// the console keeps its own audit trail.
package journal

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pythia-trading/pythia-console/internal/config"
)

// Submission outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Entry is one recorded submission attempt. Parameters holds the submitted
// map JSON-encoded, exactly as it went over the wire.
type Entry struct {
	ID          string    `db:"id" json:"id"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
	StrategyID  string    `db:"strategy_id" json:"strategy_id"`
	Parameters  string    `db:"parameters" json:"parameters"`
	Outcome     string    `db:"outcome" json:"outcome"`
	Message     string    `db:"message" json:"message"`
}

// Journal stores submission entries.
type Journal interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// FromConfig builds the configured journal, or a Nop one when disabled.
func FromConfig(cfg config.JournalConfig) (Journal, error) {
	if cfg.Disabled {
		return Nop{}, nil
	}
	return Open(cfg.Driver, cfg.DSN)
}

// NewEntry assembles an entry with a fresh ULID and UTC timestamp. ULIDs
// are time-sortable, so lexicographic id order is submission order.
func NewEntry(strategyID string, params map[string]string, outcome, message string) Entry {
	now := time.Now().UTC()
	encoded, _ := json.Marshal(params)
	return Entry{
		ID:          newID(now),
		SubmittedAt: now,
		StrategyID:  strategyID,
		Parameters:  string(encoded),
		Outcome:     outcome,
		Message:     message,
	}
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

func newID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Nop is the journal used when auditing is disabled.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

func (Nop) Recent(context.Context, int) ([]Entry, error) { return nil, nil }

func (Nop) Close() error { return nil }
