package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/evetabi/roulette/internal/domain"
)

// RoundRepository handles all database operations for Rounds and the Bet
// Book each round owns. A round's bets live in their own table so insertion
// order (P1/§5's ordering guarantee) survives persistence via a monotonic
// sequence column, per §6's "bet insertion order must survive persistence".
type RoundRepository struct {
	db *sqlx.DB
}

// NewRoundRepository creates a new RoundRepository.
func NewRoundRepository(db *sqlx.DB) *RoundRepository {
	return &RoundRepository{db: db}
}

// NextRoundNumber atomically increments the registry's current_round counter
// inside tx and returns the value it held before the increment — the round
// number to assign. This is the only cross-round shared state in the system
// (§5).
func (r *RoundRepository) NextRoundNumber(ctx context.Context, tx *sqlx.Tx) (uint64, error) {
	var next uint64
	err := tx.GetContext(ctx, &next, `
		UPDATE registry SET current_round = current_round + 1
		RETURNING current_round - 1`)
	if err != nil {
		return 0, fmt.Errorf("round_repo.NextRoundNumber: %w", err)
	}
	return next, nil
}

// Create inserts a new round row in the OPEN state.
func (r *RoundRepository) Create(ctx context.Context, tx *sqlx.Tx, round *domain.Round) error {
	query := `
		INSERT INTO rounds
			(round, pool_value, min_value, max_value, total_amount, closing_time, wheel_size, state, winner, seed, created_at)
		VALUES
			(:round, :pool_value, :min_value, :max_value, :total_amount, :closing_time, :wheel_size, :state, :winner, :seed, now())`
	if _, err := tx.NamedExecContext(ctx, query, round); err != nil {
		return fmt.Errorf("round_repo.Create: %w", err)
	}
	return nil
}

// GetForUpdate fetches a round and takes its row lock, for the duration of
// tx — the off-chain stand-in for per-round exclusive ownership (§5).
func (r *RoundRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, roundNo uint64) (*domain.Round, error) {
	var round domain.Round
	err := tx.GetContext(ctx, &round, `SELECT * FROM rounds WHERE round = $1 FOR UPDATE`, roundNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoundNotFound
		}
		return nil, fmt.Errorf("round_repo.GetForUpdate: %w", err)
	}
	round.Pool = domain.NewPool(round.PoolValue)
	return &round, nil
}

// Get fetches a round without locking, for read-only queries.
func (r *RoundRepository) Get(ctx context.Context, roundNo uint64) (*domain.Round, error) {
	var round domain.Round
	err := r.db.GetContext(ctx, &round, `SELECT * FROM rounds WHERE round = $1`, roundNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoundNotFound
		}
		return nil, fmt.Errorf("round_repo.Get: %w", err)
	}
	round.Pool = domain.NewPool(round.PoolValue)
	return &round, nil
}

// UpdateParams overwrites the three scalar limits and the pool value inside
// tx. closing_time is never touched here — it is immutable after creation.
func (r *RoundRepository) UpdateParams(ctx context.Context, tx *sqlx.Tx, round *domain.Round) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE rounds
		SET min_value = $1, max_value = $2, total_amount = $3, pool_value = $4
		WHERE round = $5`,
		round.MinValue, round.MaxValue, round.TotalAmount, round.Pool.Value(), round.Round)
	if err != nil {
		return fmt.Errorf("round_repo.UpdateParams: %w", err)
	}
	return nil
}

// DeductTotalAmount applies the budget decrement and pool credit that a
// successful bet causes, inside tx.
func (r *RoundRepository) DeductTotalAmount(ctx context.Context, tx *sqlx.Tx, roundNo, amount, newPoolValue uint64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE rounds SET total_amount = total_amount - $1, pool_value = $2 WHERE round = $3`,
		amount, newPoolValue, roundNo)
	if err != nil {
		return fmt.Errorf("round_repo.DeductTotalAmount: %w", err)
	}
	return nil
}

// InsertBet records a single accepted bet inside tx. The bigserial seq column
// backs stable iteration order on reload.
func (r *RoundRepository) InsertBet(ctx context.Context, tx *sqlx.Tx, roundNo uint64, bet domain.Bet) error {
	values := make([]int32, len(bet.Values))
	for i, v := range bet.Values {
		values[i] = int32(v)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO bets (round, player, amount, "values", created_at)
		VALUES ($1, $2, $3, $4, now())`,
		roundNo, bet.Player, bet.Amount, pq.Array(values))
	if err != nil {
		return fmt.Errorf("round_repo.InsertBet: %w", err)
	}
	return nil
}

// LoadBets reconstructs a round's BetBook in insertion order.
func (r *RoundRepository) LoadBets(ctx context.Context, tx *sqlx.Tx, roundNo uint64) (domain.BetBook, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT player, amount, "values" FROM bets WHERE round = $1 ORDER BY seq ASC`, roundNo)
	if err != nil {
		return domain.BetBook{}, fmt.Errorf("round_repo.LoadBets: %w", err)
	}
	defer rows.Close()

	book := domain.NewBetBook()
	for rows.Next() {
		var player string
		var amount uint64
		var rawValues pq.Int32Array
		if err := rows.Scan(&player, &amount, &rawValues); err != nil {
			return domain.BetBook{}, fmt.Errorf("round_repo.LoadBets scan: %w", err)
		}
		values := make([]uint8, len(rawValues))
		for i, v := range rawValues {
			values[i] = uint8(v)
		}
		book.Insert(player, domain.Bet{Player: player, Amount: amount, Values: values})
	}
	if err := rows.Err(); err != nil {
		return domain.BetBook{}, fmt.Errorf("round_repo.LoadBets rows: %w", err)
	}
	return book, nil
}

// Settle transitions a round to SETTLED, recording the winner, seed and final
// pool value inside tx. Only ever called once per round — the caller enforces
// P6 (idempotence of finish) by checking state == CLOSED before calling.
func (r *RoundRepository) Settle(ctx context.Context, tx *sqlx.Tx, roundNo uint64, winner uint8, seed []byte, finalPoolValue uint64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE rounds
		SET state = $1, winner = $2, seed = $3, pool_value = $4
		WHERE round = $5 AND state = $6`,
		domain.RoundSettled, winner, seed, finalPoolValue, roundNo, domain.RoundClosed)
	if err != nil {
		return fmt.Errorf("round_repo.Settle: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrRoundAlreadySettled
	}
	return nil
}

// Close transitions a single round from OPEN to CLOSED outside any
// transaction. The scheduler uses CloseExpired and Finish uses
// CloseForUpdate; nothing in this module calls Close.
func (r *RoundRepository) Close(ctx context.Context, roundNo uint64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE rounds SET state = $1 WHERE round = $2 AND state = $3`,
		domain.RoundClosed, roundNo, domain.RoundOpen)
	if err != nil {
		return fmt.Errorf("round_repo.Close: %w", err)
	}
	return nil
}

// CloseExpired transitions every OPEN round whose closing_time has already
// elapsed to CLOSED. The scheduler calls this once per tick so ListOpen and
// the broadcast loop never report a round as OPEN past its own window (§3
// lifecycle: "transitioned to CLOSED when wall clock exceeds closing_time").
func (r *RoundRepository) CloseExpired(ctx context.Context, nowMs int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rounds SET state = $1 WHERE state = $2 AND closing_time < $3`,
		domain.RoundClosed, domain.RoundOpen, nowMs)
	if err != nil {
		return 0, fmt.Errorf("round_repo.CloseExpired: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// CloseForUpdate transitions roundNo from OPEN to CLOSED inside tx, using the
// row lock GetForUpdate already holds. Used by Finish to lazily apply the
// OPEN->CLOSED transition at settlement time if the scheduler hasn't ticked
// yet — finish's own closing_time check is the source of truth regardless.
func (r *RoundRepository) CloseForUpdate(ctx context.Context, tx *sqlx.Tx, roundNo uint64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE rounds SET state = $1 WHERE round = $2 AND state = $3`,
		domain.RoundClosed, roundNo, domain.RoundOpen)
	if err != nil {
		return fmt.Errorf("round_repo.CloseForUpdate: %w", err)
	}
	return nil
}

// SetPoolValue persists an out-of-band pool mutation (admin withdraw) inside tx.
func (r *RoundRepository) SetPoolValue(ctx context.Context, tx *sqlx.Tx, roundNo, newValue uint64) error {
	_, err := tx.ExecContext(ctx, `UPDATE rounds SET pool_value = $1 WHERE round = $2`, newValue, roundNo)
	if err != nil {
		return fmt.Errorf("round_repo.SetPoolValue: %w", err)
	}
	return nil
}

// ListOpen returns rounds currently in the OPEN state, used by the scheduler
// broadcast loop to report time-left to connected clients.
func (r *RoundRepository) ListOpen(ctx context.Context) ([]*domain.Round, error) {
	var rounds []*domain.Round
	err := r.db.SelectContext(ctx, &rounds, `SELECT * FROM rounds WHERE state = $1 ORDER BY round ASC`, domain.RoundOpen)
	if err != nil {
		return nil, fmt.Errorf("round_repo.ListOpen: %w", err)
	}
	for _, rnd := range rounds {
		rnd.Pool = domain.NewPool(rnd.PoolValue)
	}
	return rounds, nil
}
