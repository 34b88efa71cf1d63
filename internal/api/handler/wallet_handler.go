package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evetabi/roulette/internal/config"
	"github.com/evetabi/roulette/internal/domain"
	"github.com/evetabi/roulette/internal/repository"
)

// WalletHandler serves balance and transaction-history endpoints for the
// off-chain token-balance collaborator (§6). Players are identified
// directly by address; there is no user/session model in this deployment.
type WalletHandler struct {
	walletRepo *repository.WalletRepository
	cfg        *config.Config
}

// NewWalletHandler creates a WalletHandler.
func NewWalletHandler(walletRepo *repository.WalletRepository, cfg *config.Config) *WalletHandler {
	return &WalletHandler{walletRepo: walletRepo, cfg: cfg}
}

// GetBalance godoc
// GET /api/wallet/:player/balance
func (h *WalletHandler) GetBalance(c *gin.Context) {
	player := c.Param("player")
	wallet, err := h.walletRepo.GetByPlayer(c.Request.Context(), player)
	if err != nil {
		respondError(c, http.StatusNotFound, "ERR_WALLET_NOT_FOUND", domain.ErrWalletNotFound.Error())
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"player":    wallet.Player,
		"balance":   wallet.Balance,
		"available": wallet.Available(),
	})
}

// GetTransactions godoc
// GET /api/wallet/:player/transactions?page=1&limit=20
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	player := c.Param("player")
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	txns, err := h.walletRepo.GetTransactions(c.Request.Context(), player, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch transactions")
		return
	}
	respondList(c, txns, len(txns), page, limit)
}
