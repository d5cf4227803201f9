package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/rogue/internal/game/action"
	"github.com/cory-johannsen/rogue/internal/journal"
)

// ErrDuplicateTurn is returned when a run already has an entry for a turn.
var ErrDuplicateTurn = errors.New("journal entry already recorded for turn")

// JournalRepository stores journal entries in the journal_entries table.
type JournalRepository struct {
	db *pgxpool.Pool
}

// NewJournalRepository creates a JournalRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewJournalRepository(db *pgxpool.Pool) *JournalRepository {
	if db == nil {
		panic("postgres.NewJournalRepository: db must not be nil")
	}
	return &JournalRepository{db: db}
}

// Record inserts e.
//
// Postcondition: Returns ErrDuplicateTurn if (RunID, Turn) already exists.
func (r *JournalRepository) Record(ctx context.Context, e journal.Entry) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO journal_entries (run_id, turn, sim_time, kind, actor, payload)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.RunID, int64(e.Turn), int64(e.Time), string(e.Kind), int64(e.Actor), []byte(e.Payload),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("run %s turn %d: %w", e.RunID, e.Turn, ErrDuplicateTurn)
		}
		return fmt.Errorf("inserting journal entry: %w", err)
	}
	return nil
}

// Entries returns every entry of run ordered by turn.
//
// Postcondition: Returns a non-nil, possibly empty slice on success.
func (r *JournalRepository) Entries(ctx context.Context, run uuid.UUID) ([]journal.Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT run_id, turn, sim_time, kind, actor, payload
		 FROM journal_entries WHERE run_id = $1 ORDER BY turn`,
		run,
	)
	if err != nil {
		return nil, fmt.Errorf("listing journal entries: %w", err)
	}
	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("scanning journal entries: %w", err)
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	return entries, nil
}

// Count returns the number of entries recorded for run.
func (r *JournalRepository) Count(ctx context.Context, run uuid.UUID) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM journal_entries WHERE run_id = $1`, run,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting journal entries: %w", err)
	}
	return n, nil
}

func scanEntry(row pgx.CollectableRow) (journal.Entry, error) {
	var e journal.Entry
	var turn, simTime, actor int64
	var kind string
	var payload []byte
	if err := row.Scan(&e.RunID, &turn, &simTime, &kind, &actor, &payload); err != nil {
		return journal.Entry{}, err
	}
	e.Turn = uint64(turn)
	e.Time = uint64(simTime)
	e.Kind = action.Kind(kind)
	e.Actor = uint64(actor)
	e.Payload = payload
	return e, nil
}
