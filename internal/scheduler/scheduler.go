// Package scheduler manages the two background goroutines that keep the
// round lifecycle moving:
//  1. roundCreationLoop – opens a new round as soon as the previous one closes.
//  2. broadcastLoop     – pushes live pool/time-left state to WS clients every second.
//
// Settlement is deliberately NOT automated here: finish requires an
// admin-submitted (sig, seed) beacon proof (§4.4.4), which only the operator
// can produce.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/evetabi/roulette/internal/config"
	"github.com/evetabi/roulette/internal/domain"
	"github.com/evetabi/roulette/internal/repository"
	"github.com/evetabi/roulette/internal/service"
	"github.com/evetabi/roulette/internal/ws"
)

// WsHub defines the broadcast operation the Scheduler needs from the
// WebSocket hub. The scheduler depends on this one method rather than on
// *ws.Hub; it still imports package ws for the RoundUpdateMessage type.
type WsHub interface {
	BroadcastRoundUpdate(msg ws.RoundUpdateMessage)
}

// schedulerCapability is the operational credential the scheduler presents
// when auto-creating rounds. It is never derived from a user-submitted
// token; the scheduler runs inside the trusted deployment boundary.
var schedulerCapability = domain.AdminCapability{Holder: "scheduler"}

// Scheduler wires together the round service and runs the background
// lifecycle goroutines. Call Start(ctx) once from main(); cancel the context
// to shut it down gracefully.
type Scheduler struct {
	roundSvc  *service.RoundService
	roundRepo *repository.RoundRepository
	hub       WsHub
	cfg       *config.Config
	logger    *slog.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(
	roundSvc *service.RoundService,
	roundRepo *repository.RoundRepository,
	hub WsHub,
	cfg *config.Config,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		roundSvc:  roundSvc,
		roundRepo: roundRepo,
		hub:       hub,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start launches the background goroutines. It returns immediately; all
// loops run until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.roundCreationLoop(ctx)
	go s.broadcastLoop(ctx)
	s.logger.Info("scheduler started")
}

// ──────────────────────────────────────────────────────────────────────────────
// roundCreationLoop
// ──────────────────────────────────────────────────────────────────────────────

// roundCreationLoop keeps exactly one OPEN round alive: whenever none exists
// it creates one using the deployment's configured defaults, with seed
// liquidity equal to the worst-case payout (no wallet is debited for it).
// Creation makes up to 3 attempts, 30 seconds apart, before the loop goes
// back to checking on its next tick.
func (s *Scheduler) roundCreationLoop(ctx context.Context) {
	defer s.recoverAndLog("roundCreationLoop")

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("roundCreationLoop: shutting down")
			return
		case <-ticker.C:
			if n, err := s.roundRepo.CloseExpired(ctx, time.Now().UnixMilli()); err != nil {
				s.logger.Error("roundCreationLoop: CloseExpired", "err", err)
			} else if n > 0 {
				s.logger.Info("rounds closed on expiry", "count", n)
			}

			open, err := s.roundRepo.ListOpen(ctx)
			if err != nil {
				s.logger.Error("roundCreationLoop: ListOpen", "err", err)
				continue
			}
			if len(open) > 0 {
				continue
			}
			if err := s.createRoundWithRetry(ctx); err != nil {
				s.logger.Error("roundCreationLoop: failed to create round after retries", "err", err)
			}
		}
	}
}

func (s *Scheduler) createRoundWithRetry(ctx context.Context) error {
	const maxAttempts = 3
	const retryDelay = 30 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		round, err := s.roundSvc.CreateRound(ctx, schedulerCapability,
			s.cfg.Round.DefaultMinValue, s.cfg.Round.DefaultMaxValue, s.cfg.Round.DefaultMaxValue*10,
			uint64(s.cfg.Round.DefaultPeriodMs), s.cfg.Round.DefaultMaxValue*10*s.cfg.Round.DefaultPayoutNumerator,
			s.cfg.Round.DefaultWheelSize)
		if err == nil {
			s.logger.Info("round created", "round", round.Round, "closing_time", round.ClosingTime)
			return nil
		}
		lastErr = err
		s.logger.Warn("round creation failed, retrying", "attempt", attempt, "max", maxAttempts, "err", err)

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return lastErr
}

// ──────────────────────────────────────────────────────────────────────────────
// broadcastLoop
// ──────────────────────────────────────────────────────────────────────────────

// broadcastLoop pushes every OPEN round's live pool/time-left state to
// connected WS clients once per second.
func (s *Scheduler) broadcastLoop(ctx context.Context) {
	defer s.recoverAndLog("broadcastLoop")

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("broadcastLoop: shutting down")
			return
		case <-ticker.C:
			s.broadcastOpenRounds(ctx)
		}
	}
}

func (s *Scheduler) broadcastOpenRounds(ctx context.Context) {
	rounds, err := s.roundRepo.ListOpen(ctx)
	if err != nil {
		s.logger.Warn("broadcastLoop: ListOpen failed", "err", err)
		return
	}
	if s.hub == nil {
		return
	}
	now := time.Now().UnixMilli()
	for _, round := range rounds {
		timeLeft := (round.ClosingTime - now) / 1000
		if timeLeft < 0 {
			timeLeft = 0
		}
		s.hub.BroadcastRoundUpdate(ws.RoundUpdateMessage{
			Round:           round.Round,
			PoolValue:       round.Pool.Value(),
			TotalAmount:     round.TotalAmount,
			TimeLeftSeconds: timeLeft,
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Panic recovery
// ──────────────────────────────────────────────────────────────────────────────

// recoverAndLog is deferred inside each goroutine to catch unexpected
// panics, log them, and allow the scheduler to continue running.
func (s *Scheduler) recoverAndLog(loop string) {
	if r := recover(); r != nil {
		s.logger.Error("PANIC recovered in scheduler loop", "loop", loop, "panic", r)
	}
}
