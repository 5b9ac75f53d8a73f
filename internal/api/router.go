package api

import (
	"net/http" // HTTP status codes

	"topup_system/internal/middleware" // Request logging and recovery

	"github.com/gin-contrib/cors" // CORS middleware
	"github.com/gin-gonic/gin"    // Gin web framework
)

// RouterConfig holds the non-service inputs of the router
type RouterConfig struct {
	TempDir   string // Staging directory for multipart uploads
	UploadDir string // Served under /uploads when slips are stored locally, empty otherwise
}

// NewRouter builds the gin engine with every route
func NewRouter(svc TopupService, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.Recovery(), cors.Default())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Server is running") // Liveness
	})

	r.POST("/create-order", CreateOrderHandler(svc))
	r.POST("/upload-slip/:id", UploadSlipHandler(svc, cfg.TempDir))
	r.GET("/orders", ListOrdersHandler(svc))
	r.POST("/approve/:id", ApproveOrderHandler(svc))
	r.POST("/buy", BuyHandler(svc))
	r.GET("/balance/:email", GetBalanceHandler(svc))
	r.GET("/transactions", ListTransactionsHandler(svc))

	if cfg.UploadDir != "" {
		r.Static("/uploads", cfg.UploadDir) // Locally stored slips
	}
	return r
}
