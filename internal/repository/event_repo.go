package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evetabi/roulette/internal/domain"
)

// EventRepository appends NewBet and RoundResult records to the durable
// event_log table. Writes happen inside the same transaction as the
// effecting mutation so a rolled-back bet or finish never leaves a dangling
// event, but the row only becomes visible to readers after that transaction
// commits — satisfying "event emission must occur AFTER the effecting state
// mutation" (§4.6) without a separate outbox stage.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) insert(ctx context.Context, tx *sqlx.Tx, round uint64, eventType domain.EventType, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("event_repo.insert marshal: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO event_log (id, round, type, payload, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		uuid.NewString(), round, string(eventType), body)
	if err != nil {
		return fmt.Errorf("event_repo.insert: %w", err)
	}
	return nil
}

// EmitNewBet appends a NewBet event inside tx.
func (r *EventRepository) EmitNewBet(ctx context.Context, tx *sqlx.Tx, e domain.NewBetEvent) error {
	return r.insert(ctx, tx, e.Round, domain.EventNewBet, e)
}

// EmitRoundResult appends a RoundResult event inside tx.
func (r *EventRepository) EmitRoundResult(ctx context.Context, tx *sqlx.Tx, e domain.RoundResultEvent) error {
	return r.insert(ctx, tx, e.Round, domain.EventRoundResult, e)
}

// StoredEvent is one row of the append-only log, as read back for replay or
// audit.
type StoredEvent struct {
	ID        string          `db:"id"`
	Round     uint64          `db:"round"`
	Type      string          `db:"type"`
	Payload   json.RawMessage `db:"payload"`
	CreatedAt string          `db:"created_at"`
}

// ListByRound returns every event emitted for a round, in emission order.
func (r *EventRepository) ListByRound(ctx context.Context, round uint64) ([]StoredEvent, error) {
	var events []StoredEvent
	err := r.db.SelectContext(ctx, &events, `
		SELECT id, round, type, payload, created_at::text
		FROM event_log WHERE round = $1 ORDER BY created_at ASC`, round)
	if err != nil {
		return nil, fmt.Errorf("event_repo.ListByRound: %w", err)
	}
	return events, nil
}
