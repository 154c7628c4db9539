package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockJournal(t *testing.T) (*SQLJournal, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(sqlx.NewDb(db, "sqlmock")), mock
}

func TestInitCreatesSchema(t *testing.T) {
	j, mock := newMockJournal(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS config_submissions").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, j.Init(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordInsertsEntry(t *testing.T) {
	j, mock := newMockJournal(t)

	entry := Entry{
		ID:          "01JGXW5Y7Z0000000000000000",
		SubmittedAt: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		StrategyID:  "statistical_pattern",
		Parameters:  `{"lookback_period":"100"}`,
		Outcome:     OutcomeSuccess,
		Message:     "Strategy statistical_pattern configured successfully",
	}

	mock.ExpectExec("INSERT INTO config_submissions").
		WithArgs(entry.ID, entry.SubmittedAt, entry.StrategyID, entry.Parameters, entry.Outcome, entry.Message).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, j.Record(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordWrapsDriverError(t *testing.T) {
	j, mock := newMockJournal(t)

	mock.ExpectExec("INSERT INTO config_submissions").
		WillReturnError(errors.New("disk full"))

	err := j.Record(context.Background(), NewEntry("s", nil, OutcomeError, ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record submission")
	assert.Contains(t, err.Error(), "disk full")
}

func TestRecentReturnsNewestFirst(t *testing.T) {
	j, mock := newMockJournal(t)

	ts := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "submitted_at", "strategy_id", "parameters", "outcome", "message"}).
		AddRow("01JGXW5Y7Z0000000000000002", ts, "statistical_pattern", `{"lookback_period":"100"}`, OutcomeSuccess, "ok").
		AddRow("01JGXW5Y7Z0000000000000001", ts.Add(-time.Minute), "mean_reversion", `{}`, OutcomeRejected, "Parameter entry_zscore must be >= 0.5")

	mock.ExpectQuery("FROM config_submissions ORDER BY id DESC LIMIT").
		WithArgs(2).
		WillReturnRows(rows)

	entries, err := j.Recent(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "statistical_pattern", entries[0].StrategyID)
	assert.Equal(t, OutcomeSuccess, entries[0].Outcome)
	assert.Equal(t, OutcomeRejected, entries[1].Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentAppliesDefaultLimit(t *testing.T) {
	j, mock := newMockJournal(t)

	mock.ExpectQuery("FROM config_submissions ORDER BY id DESC LIMIT").
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "submitted_at", "strategy_id", "parameters", "outcome", "message"}))

	entries, err := j.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
