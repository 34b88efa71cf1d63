package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/evetabi/roulette/internal/domain"
	"github.com/evetabi/roulette/internal/repository"
	"github.com/evetabi/roulette/internal/service"
)

// RoundHandler serves public round-query and bet-placement endpoints.
type RoundHandler struct {
	roundSvc  *service.RoundService
	roundRepo *repository.RoundRepository
}

// NewRoundHandler creates a RoundHandler.
func NewRoundHandler(roundSvc *service.RoundService, roundRepo *repository.RoundRepository) *RoundHandler {
	return &RoundHandler{roundSvc: roundSvc, roundRepo: roundRepo}
}

// GetByID godoc
// GET /api/rounds/:round
func (h *RoundHandler) GetByID(c *gin.Context) {
	roundNo, err := parseRoundParam(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ROUND", "invalid round id")
		return
	}

	round, err := h.roundRepo.Get(c.Request.Context(), roundNo)
	if err != nil {
		if errors.Is(err, domain.ErrRoundNotFound) {
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch round")
		return
	}
	respondSuccess(c, http.StatusOK, round)
}

// ListOpen godoc
// GET /api/rounds/open
func (h *RoundHandler) ListOpen(c *gin.Context) {
	rounds, err := h.roundRepo.ListOpen(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not list open rounds")
		return
	}
	respondSuccess(c, http.StatusOK, rounds)
}

// PlaceBet godoc
// POST /api/rounds/:round/bets
// Body: {"player":"0xabc...","amount":1000000,"values":[1,2,3,36]}
func (h *RoundHandler) PlaceBet(c *gin.Context) {
	roundNo, err := parseRoundParam(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ROUND", "invalid round id")
		return
	}

	var body struct {
		Player string  `json:"player" binding:"required"`
		Amount uint64  `json:"amount" binding:"required"`
		Values []uint8 `json:"values" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	bet, err := h.roundSvc.PlaceBet(c.Request.Context(), roundNo, body.Player, body.Amount, body.Values)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCoinValue):
			respondError(c, http.StatusBadRequest, "ERR_INVALID_COIN_VALUE", err.Error())
		case errors.Is(err, domain.ErrRoundNotAvailable):
			respondError(c, http.StatusConflict, "ERR_ROUND_NOT_AVAILABLE", err.Error())
		case errors.Is(err, domain.ErrRoundClosed):
			respondError(c, http.StatusConflict, "ERR_ROUND_CLOSED", err.Error())
		case errors.Is(err, domain.ErrAlreadyPlaced):
			respondError(c, http.StatusConflict, "ERR_ALREADY_PLACED", err.Error())
		case errors.Is(err, domain.ErrRoundNotFound):
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrInsufficientBalance):
			respondError(c, http.StatusPaymentRequired, "ERR_INSUFFICIENT_BALANCE", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not place bet")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, bet)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func parseRoundParam(c *gin.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("round"), 10, 64)
}
