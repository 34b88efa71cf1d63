package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/evetabi/roulette/internal/config"
	"github.com/evetabi/roulette/internal/domain"
	"github.com/evetabi/roulette/internal/randomness"
	"github.com/evetabi/roulette/internal/repository"
)

// Broadcaster is the minimal interface RoundService needs from the WS hub.
// Declared here, implemented by ws.Hub, to avoid an import cycle.
type Broadcaster interface {
	BroadcastNewBet(e domain.NewBetEvent)
	BroadcastRoundResult(e domain.RoundResultEvent)
}

// Clock abstracts "now" so tests can pin the wall clock the way the source
// spec treats it as a trusted, injected collaborator (§6).
type Clock interface {
	NowMs() int64
}

// SystemClock is the production Clock, backed by time.Now.
type SystemClock struct{}

// NowMs returns the current time in milliseconds since the Unix epoch.
func (SystemClock) NowMs() int64 { return time.Now().UnixMilli() }

// RoundService is the Round Engine (RE): the state machine driving a round
// from creation through settlement. Each operation takes out that round's
// row lock for the duration of its transaction — the off-chain stand-in for
// "per-round object ownership" (§5, §9).
type RoundService struct {
	db          *sqlx.DB
	roundRepo   *repository.RoundRepository
	walletRepo  *repository.WalletRepository
	eventRepo   *repository.EventRepository
	verifier    *randomness.Verifier
	clock       Clock
	cfg         *config.Config
	logger      *slog.Logger
	broadcaster Broadcaster

	locksMu sync.Mutex
	locks   map[uint64]*sync.Mutex
}

// NewRoundService creates a RoundService.
func NewRoundService(
	db *sqlx.DB,
	roundRepo *repository.RoundRepository,
	walletRepo *repository.WalletRepository,
	eventRepo *repository.EventRepository,
	verifier *randomness.Verifier,
	clock Clock,
	cfg *config.Config,
	logger *slog.Logger,
) *RoundService {
	return &RoundService{
		db:         db,
		roundRepo:  roundRepo,
		walletRepo: walletRepo,
		eventRepo:  eventRepo,
		verifier:   verifier,
		clock:      clock,
		cfg:        cfg,
		logger:     logger,
		locks:      make(map[uint64]*sync.Mutex),
	}
}

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *RoundService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// lockFor returns the in-process mutex guarding roundNo. Combined with the
// DB row lock, this serializes every operation that touches one round while
// leaving distinct rounds free to proceed concurrently (§5).
func (s *RoundService) lockFor(roundNo uint64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[roundNo]
	if !ok {
		l = &sync.Mutex{}
		s.locks[roundNo] = l
	}
	return l
}

// ──────────────────────────────────────────────────────────────────────────────
// CreateRound
// ──────────────────────────────────────────────────────────────────────────────

// CreateRound allocates a new round in OPEN state with the given limits and
// seed liquidity. cap authorizes the call; its mere presence is sufficient
// (§4.5). The solvency precondition from §9 OQ3 is enforced here: seed
// liquidity must already cover the worst-case payout a fully-subscribed
// round could owe.
func (s *RoundService) CreateRound(ctx context.Context, cap domain.AdminCapability, minValue, maxValue, totalAmount, periodMs uint64, seedLiquidity uint64, wheelSize uint8) (*domain.Round, error) {
	if minValue == 0 || minValue > maxValue {
		return nil, domain.ErrInvalidRoundParams
	}
	if periodMs == 0 {
		return nil, domain.ErrInvalidRoundParams
	}
	if wheelSize < 3 {
		return nil, domain.ErrInvalidRoundParams
	}

	round := &domain.Round{
		MinValue:    minValue,
		MaxValue:    maxValue,
		TotalAmount: totalAmount,
		WheelSize:   wheelSize,
		State:       domain.RoundOpen,
		Players:     domain.NewBetBook(),
	}
	round.Pool = domain.NewPool(seedLiquidity)
	round.PoolValue = round.Pool.Value()

	if round.Pool.Value() < round.MaxPossiblePayout() {
		return nil, fmt.Errorf("round_service.CreateRound: %w: pool %d below worst-case payout %d",
			domain.ErrInsufficientPool, round.Pool.Value(), round.MaxPossiblePayout())
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("round_service.CreateRound: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	roundNo, err := s.roundRepo.NextRoundNumber(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("round_service.CreateRound: next round: %w", err)
	}
	round.Round = roundNo
	round.ClosingTime = s.clock.NowMs() + int64(periodMs)

	if err = s.roundRepo.Create(ctx, tx, round); err != nil {
		return nil, fmt.Errorf("round_service.CreateRound: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("round_service.CreateRound: commit: %w", err)
	}
	return round, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// UpdateRound
// ──────────────────────────────────────────────────────────────────────────────

// UpdateRound overwrites the three scalar limits and joins extraLiquidity
// into the pool. Permitted only while OPEN; closing_time is never touched.
func (s *RoundService) UpdateRound(ctx context.Context, cap domain.AdminCapability, roundNo, minValue, maxValue, totalAmount, extraLiquidity uint64) (*domain.Round, error) {
	lock := s.lockFor(roundNo)
	lock.Lock()
	defer lock.Unlock()

	if minValue == 0 || minValue > maxValue {
		return nil, domain.ErrInvalidRoundParams
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("round_service.UpdateRound: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	round, err := s.roundRepo.GetForUpdate(ctx, tx, roundNo)
	if err != nil {
		return nil, err
	}
	if round.State != domain.RoundOpen {
		err = domain.ErrRoundClosed
		return nil, err
	}

	round.MinValue = minValue
	round.MaxValue = maxValue
	round.TotalAmount = totalAmount
	round.Pool.Deposit(extraLiquidity)

	if round.Pool.Value() < round.MaxPossiblePayout() {
		err = fmt.Errorf("round_service.UpdateRound: %w: pool %d below worst-case payout %d",
			domain.ErrInsufficientPool, round.Pool.Value(), round.MaxPossiblePayout())
		return nil, err
	}

	if err = s.roundRepo.UpdateParams(ctx, tx, round); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("round_service.UpdateRound: commit: %w", err)
	}
	return round, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// PlaceBet
// ──────────────────────────────────────────────────────────────────────────────

// PlaceBet validates and admits a bet in the exact order §4.4.3 specifies,
// debits the player's wallet, credits the round pool, and emits NewBet after
// the mutation commits.
func (s *RoundService) PlaceBet(ctx context.Context, roundNo uint64, player string, amount uint64, values []uint8) (*domain.Bet, error) {
	if err := validateValues(values); err != nil {
		return nil, err
	}

	lock := s.lockFor(roundNo)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("round_service.PlaceBet: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	round, err := s.roundRepo.GetForUpdate(ctx, tx, roundNo)
	if err != nil {
		return nil, err
	}

	// §9 OQ2: reject any value outside this round's playable range now that
	// its wheel size is known; validateValues already rejected zero/duplicate
	// entries independent of the round.
	for _, v := range values {
		if v > round.PlayableMax() {
			err = domain.ErrInvalidCoinValue
			return nil, err
		}
	}

	if amount < round.MinValue || amount > round.MaxValue {
		err = domain.ErrInvalidCoinValue
		return nil, err
	}
	if amount > round.TotalAmount {
		err = domain.ErrRoundNotAvailable
		return nil, err
	}
	now := s.clock.NowMs()
	if !round.IsOpen(now) {
		err = domain.ErrRoundClosed
		return nil, err
	}
	book, err := s.roundRepo.LoadBets(ctx, tx, roundNo)
	if err != nil {
		return nil, err
	}
	if book.Contains(player) {
		err = domain.ErrAlreadyPlaced
		return nil, err
	}

	balanceBefore, balanceAfter, err := s.walletRepo.DeductBalance(ctx, tx, player, domain.DecimalAmount(amount))
	if err != nil {
		return nil, fmt.Errorf("round_service.PlaceBet: deduct wallet: %w", err)
	}

	bet := domain.Bet{Player: player, Amount: amount, Values: values}
	round.TotalAmount -= amount
	round.Pool.Deposit(amount)

	if err = s.roundRepo.InsertBet(ctx, tx, roundNo, bet); err != nil {
		return nil, err
	}
	if err = s.roundRepo.DeductTotalAmount(ctx, tx, roundNo, amount, round.Pool.Value()); err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		Player:        player,
		Type:          domain.TxStake,
		Amount:        domain.DecimalAmount(amount),
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		RefRound:      &roundNo,
		Description:   "bet placed",
		CreatedAt:     time.Now().UTC(),
	}
	if err = s.walletRepo.LogTransaction(ctx, tx, txn); err != nil {
		return nil, err
	}

	event := domain.NewBetEvent{
		Round:     roundNo,
		Player:    player,
		Amount:    amount,
		Values:    values,
		Timestamp: time.Now().UTC(),
	}
	if err = s.eventRepo.EmitNewBet(ctx, tx, event); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("round_service.PlaceBet: commit: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastNewBet(event)
	}
	return &bet, nil
}

// validateValues rejects duplicates; per-element range checking against a
// round's wheel size happens in PlaceBet once the round is loaded (§9 OQ2).
func validateValues(values []uint8) error {
	if len(values) == 0 {
		return domain.ErrInvalidCoinValue
	}
	seen := make(map[uint8]bool, len(values))
	for _, v := range values {
		if v == 0 || seen[v] {
			return domain.ErrInvalidCoinValue
		}
		seen[v] = true
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Finish
// ──────────────────────────────────────────────────────────────────────────────

// Finish verifies the beacon proof, derives the winning number, walks the
// bet book in insertion order disbursing prizes, drains the residual pool to
// the operator, and settles the round — exactly once (§4.4.4, P6).
func (s *RoundService) Finish(ctx context.Context, cap domain.AdminCapability, roundNo uint64, sig, seed []byte, operator string) (*domain.Round, uint8, error) {
	lock := s.lockFor(roundNo)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("round_service.Finish: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	round, err := s.roundRepo.GetForUpdate(ctx, tx, roundNo)
	if err != nil {
		return nil, 0, err
	}
	if round.State == domain.RoundSettled {
		err = domain.ErrRoundAlreadySettled
		return nil, 0, err
	}

	now := s.clock.NowMs()
	// The scheduler normally flips OPEN->CLOSED once closing_time elapses
	// (RoundRepository.CloseExpired), but finish must not depend on that
	// background tick having run yet: apply the same transition here, still
	// under this round's row lock, so closing_time alone is authoritative.
	if round.State == domain.RoundOpen && now > round.ClosingTime {
		if err = s.roundRepo.CloseForUpdate(ctx, tx, roundNo); err != nil {
			return nil, 0, err
		}
		round.State = domain.RoundClosed
	}
	if !round.CanFinish(now) {
		err = domain.ErrRoundNotFinished
		return nil, 0, err
	}

	if verr := s.verifier.Verify(sig, seed); verr != nil {
		err = verr
		return nil, 0, err
	}

	// §9 OQ4: bind derive to closing_time, not wall-clock now, to remove the
	// operator's ability to grind settlement timestamps.
	digest := randomness.Derive(sig, uint64(round.ClosingTime))
	sel, serr := randomness.Selector(round.WheelSize, digest[:])
	if serr != nil {
		err = serr
		return nil, 0, err
	}
	winner := sel + 1

	book, lerr := s.roundRepo.LoadBets(ctx, tx, roundNo)
	if lerr != nil {
		err = lerr
		return nil, 0, err
	}

	for _, bet := range book.Iter() {
		k := 0
		won := false
		for _, v := range bet.Values {
			if v <= round.PlayableMax() {
				k++
			}
			if v == winner {
				won = true
			}
		}
		if !won || k == 0 {
			continue
		}
		prize := domain.Payout(bet.Amount, k)
		if werr := round.Pool.Withdraw(prize); werr != nil {
			err = fmt.Errorf("round_service.Finish: %w", werr)
			return nil, 0, err
		}
		balanceBefore, balanceAfter, aerr := s.walletRepo.AddBalance(ctx, tx, bet.Player, domain.DecimalAmount(prize))
		if aerr != nil {
			err = aerr
			return nil, 0, err
		}
		txn := &domain.Transaction{
			Player:        bet.Player,
			Type:          domain.TxPayout,
			Amount:        domain.DecimalAmount(prize),
			BalanceBefore: balanceBefore,
			BalanceAfter:  balanceAfter,
			RefRound:      &roundNo,
			Description:   "round prize",
			CreatedAt:     time.Now().UTC(),
		}
		if lterr := s.walletRepo.LogTransaction(ctx, tx, txn); lterr != nil {
			err = lterr
			return nil, 0, err
		}
	}

	residual := round.Pool.Value()
	if residual > 0 {
		if werr := round.Pool.Withdraw(residual); werr != nil {
			err = werr
			return nil, 0, err
		}
		if _, _, werr := s.walletRepo.AddBalance(ctx, tx, operator, domain.DecimalAmount(residual)); werr != nil {
			err = werr
			return nil, 0, err
		}
	}

	if err = s.roundRepo.Settle(ctx, tx, roundNo, winner, seed, round.Pool.Value()); err != nil {
		return nil, 0, err
	}

	event := domain.RoundResultEvent{
		Round:     roundNo,
		Seed:      seed,
		Random:    winner,
		Timestamp: time.Now().UTC(),
	}
	if err = s.eventRepo.EmitRoundResult(ctx, tx, event); err != nil {
		return nil, 0, err
	}

	if err = tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("round_service.Finish: commit: %w", err)
	}

	round.State = domain.RoundSettled
	round.Winner = &winner
	if s.broadcaster != nil {
		s.broadcaster.BroadcastRoundResult(event)
	}
	return round, winner, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Withdraw
// ──────────────────────────────────────────────────────────────────────────────

// Withdraw is the admin emergency drain path. Permitted in OPEN or SETTLED
// state; amount must not exceed the current pool value. §9 OQ6: this is
// intentionally still permitted during OPEN — a logged trust-model decision,
// not a technical necessity.
func (s *RoundService) Withdraw(ctx context.Context, cap domain.AdminCapability, roundNo, amount uint64, recipient string) error {
	lock := s.lockFor(roundNo)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("round_service.Withdraw: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	round, err := s.roundRepo.GetForUpdate(ctx, tx, roundNo)
	if err != nil {
		return err
	}
	if round.State == domain.RoundClosed {
		err = domain.ErrRoundClosed
		return err
	}

	if err = round.Pool.Withdraw(amount); err != nil {
		return err
	}
	if round.State == domain.RoundOpen {
		// A withdraw against an OPEN round can break solvency relative to
		// future winning obligations; permitted per §9 OQ6 but surfaced loudly.
		s.warnOpenWithdraw(roundNo, amount)
	}

	if err = s.roundRepo.SetPoolValue(ctx, tx, roundNo, round.Pool.Value()); err != nil {
		return err
	}
	if _, _, err = s.walletRepo.AddBalance(ctx, tx, recipient, domain.DecimalAmount(amount)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("round_service.Withdraw: commit: %w", err)
	}
	return nil
}

// warnOpenWithdraw surfaces the §9 OQ6 trust assumption: an admin withdraw
// against an OPEN round can outrun future winning obligations.
func (s *RoundService) warnOpenWithdraw(roundNo, amount uint64) {
	s.logger.Warn("admin withdraw against an OPEN round", "round", roundNo, "amount", amount)
}
