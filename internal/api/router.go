package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evetabi/roulette/internal/api/handler"
	"github.com/evetabi/roulette/internal/api/middleware"
	"github.com/evetabi/roulette/internal/config"
	"github.com/evetabi/roulette/internal/repository"
	"github.com/evetabi/roulette/internal/service"
	"github.com/evetabi/roulette/internal/ws"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	AdminSvc   *service.AdminService
	RoundSvc   *service.RoundService
	RoundRepo  *repository.RoundRepository
	WalletRepo *repository.WalletRepository
	Hub        *ws.Hub
	Cfg        *config.Config
}

// SetupRouter creates and configures the main Gin engine with all routes,
// middleware, CORS, and rate limiting rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	adminH := handler.NewAdminHandler(deps.AdminSvc, deps.RoundSvc)
	roundH := handler.NewRoundHandler(deps.RoundSvc, deps.RoundRepo)
	walletH := handler.NewWalletHandler(deps.WalletRepo, deps.Cfg)

	// ── Admin auth middleware ─────────────────────────────────────────────────
	adminAuth := middleware.AdminAuth(deps.AdminSvc)

	// ── Rate limiters ─────────────────────────────────────────────────────────
	loginRL := middleware.RateLimitMiddleware(5) // 5 req/s per IP for admin login
	betRL := middleware.RateLimitMiddleware(30)  // 30 req/s per IP for bet placement

	api := r.Group("/api")
	{
		// ── Admin (capability-gated) ──────────────────────────────────────────
		admin := api.Group("/admin")
		{
			admin.POST("/login", loginRL, adminH.Login)

			adminRounds := admin.Group("/rounds")
			adminRounds.Use(adminAuth)
			{
				adminRounds.POST("", adminH.CreateRound)
				adminRounds.PATCH("/:round", adminH.UpdateRound)
				adminRounds.POST("/:round/finish", adminH.Finish)
				adminRounds.POST("/:round/withdraw", adminH.Withdraw)
			}
		}

		// ── Rounds (public) ───────────────────────────────────────────────────
		rounds := api.Group("/rounds")
		{
			rounds.GET("/open", roundH.ListOpen)
			rounds.GET("/:round", roundH.GetByID)
			rounds.POST("/:round/bets", betRL, roundH.PlaceBet)
		}

		// ── Wallet (public; players are identified by address, not session) ──
		wallet := api.Group("/wallet")
		{
			wallet.GET("/:player/balance", walletH.GetBalance)
			wallet.GET("/:player/transactions", walletH.GetTransactions)
		}
	}

	// ── WebSocket ─────────────────────────────────────────────────────────────
	if deps.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			deps.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets appropriate CORS headers.
// Outside production all origins are allowed ("*"); in production the
// request's own Origin header is echoed back. No origin allow-list is applied.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if !cfg.IsProd() {
			// Development: allow any origin
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
