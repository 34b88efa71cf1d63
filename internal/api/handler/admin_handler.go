package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evetabi/roulette/internal/api/middleware"
	"github.com/evetabi/roulette/internal/domain"
	"github.com/evetabi/roulette/internal/service"
)

// AdminHandler serves the capability-gated round lifecycle endpoints: login,
// create, update, finish, withdraw (§4.5).
type AdminHandler struct {
	adminSvc *service.AdminService
	roundSvc *service.RoundService
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(adminSvc *service.AdminService, roundSvc *service.RoundService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc, roundSvc: roundSvc}
}

// Login godoc
// POST /api/admin/login
// Body: {"passphrase":"..."}
// Mints the signed capability token — the only path by which "possession of
// the capability" is ever materialized off-chain.
func (h *AdminHandler) Login(c *gin.Context) {
	var body struct {
		Passphrase string `json:"passphrase" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	token, err := h.adminSvc.Mint(body.Passphrase)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", domain.ErrUnauthorized.Error())
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"token": token})
}

// CreateRound godoc
// POST /api/admin/rounds [Bearer]
// Body: {"min_value":1000000,"max_value":10000000,"total_amount":10000000,
//        "period_ms":60000,"seed_liquidity":360000000,"wheel_size":38}
// seed_liquidity must cover total_amount * 36, or the round is rejected
// with ERR_INSUFFICIENT_POOL.
func (h *AdminHandler) CreateRound(c *gin.Context) {
	cap := middleware.GetCapability(c)

	var body struct {
		MinValue      uint64 `json:"min_value"      binding:"required"`
		MaxValue      uint64 `json:"max_value"       binding:"required"`
		TotalAmount   uint64 `json:"total_amount"    binding:"required"`
		PeriodMs      uint64 `json:"period_ms"       binding:"required"`
		SeedLiquidity uint64 `json:"seed_liquidity"`
		WheelSize     uint8  `json:"wheel_size"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	if body.WheelSize == 0 {
		body.WheelSize = domain.DefaultWheelSize
	}

	round, err := h.roundSvc.CreateRound(c.Request.Context(), cap,
		body.MinValue, body.MaxValue, body.TotalAmount, body.PeriodMs, body.SeedLiquidity, body.WheelSize)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRoundParams):
			respondError(c, http.StatusBadRequest, "ERR_INVALID_PARAMS", err.Error())
		case errors.Is(err, domain.ErrInsufficientPool):
			respondError(c, http.StatusBadRequest, "ERR_INSUFFICIENT_POOL", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not create round")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, round)
}

// UpdateRound godoc
// PATCH /api/admin/rounds/:round [Bearer]
// Body: {"min_value":...,"max_value":...,"total_amount":...,"extra_liquidity":...}
func (h *AdminHandler) UpdateRound(c *gin.Context) {
	cap := middleware.GetCapability(c)

	roundNo, err := parseRoundParam(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ROUND", "invalid round id")
		return
	}

	var body struct {
		MinValue       uint64 `json:"min_value"       binding:"required"`
		MaxValue       uint64 `json:"max_value"       binding:"required"`
		TotalAmount    uint64 `json:"total_amount"`
		ExtraLiquidity uint64 `json:"extra_liquidity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	round, err := h.roundSvc.UpdateRound(c.Request.Context(), cap, roundNo,
		body.MinValue, body.MaxValue, body.TotalAmount, body.ExtraLiquidity)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRoundParams):
			respondError(c, http.StatusBadRequest, "ERR_INVALID_PARAMS", err.Error())
		case errors.Is(err, domain.ErrRoundClosed):
			respondError(c, http.StatusConflict, "ERR_ROUND_CLOSED", err.Error())
		case errors.Is(err, domain.ErrInsufficientPool):
			respondError(c, http.StatusBadRequest, "ERR_INSUFFICIENT_POOL", err.Error())
		case errors.Is(err, domain.ErrRoundNotFound):
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not update round")
		}
		return
	}
	respondSuccess(c, http.StatusOK, round)
}

// Finish godoc
// POST /api/admin/rounds/:round/finish [Bearer]
// Body: {"sig":"<hex 96 bytes>","seed":"<hex 32 bytes>"}
func (h *AdminHandler) Finish(c *gin.Context) {
	cap := middleware.GetCapability(c)

	roundNo, err := parseRoundParam(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ROUND", "invalid round id")
		return
	}

	var body struct {
		Sig  string `json:"sig"  binding:"required"`
		Seed string `json:"seed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	sig, err := decodeHex(body.Sig)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_SIG", "sig must be hex-encoded")
		return
	}
	seed, err := decodeHex(body.Seed)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_SEED", "seed must be hex-encoded")
		return
	}

	round, winner, err := h.roundSvc.Finish(c.Request.Context(), cap, roundNo, sig, seed, operatorAddress)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoundNotFinished):
			respondError(c, http.StatusConflict, "ERR_ROUND_NOT_FINISHED", err.Error())
		case errors.Is(err, domain.ErrInvalidProof):
			respondError(c, http.StatusBadRequest, "ERR_INVALID_PROOF", err.Error())
		case errors.Is(err, domain.ErrRoundAlreadySettled):
			respondError(c, http.StatusConflict, "ERR_ALREADY_SETTLED", err.Error())
		case errors.Is(err, domain.ErrInsufficientPool):
			respondError(c, http.StatusConflict, "ERR_INSUFFICIENT_POOL", err.Error())
		case errors.Is(err, domain.ErrRoundNotFound):
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not finish round")
		}
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"round": round, "winner": winner})
}

// Withdraw godoc
// POST /api/admin/rounds/:round/withdraw [Bearer]
// Body: {"amount":1000000,"recipient":"0xops..."}
func (h *AdminHandler) Withdraw(c *gin.Context) {
	cap := middleware.GetCapability(c)

	roundNo, err := parseRoundParam(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ROUND", "invalid round id")
		return
	}

	var body struct {
		Amount    uint64 `json:"amount"    binding:"required"`
		Recipient string `json:"recipient" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	if err := h.roundSvc.Withdraw(c.Request.Context(), cap, roundNo, body.Amount, body.Recipient); err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientPool):
			respondError(c, http.StatusConflict, "ERR_INSUFFICIENT_POOL", err.Error())
		case errors.Is(err, domain.ErrRoundClosed):
			respondError(c, http.StatusConflict, "ERR_ROUND_CLOSED", err.Error())
		case errors.Is(err, domain.ErrRoundNotFound):
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not withdraw")
		}
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "withdrawn"})
}
