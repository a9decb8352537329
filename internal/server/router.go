package server

import (
	"time"

	"github.com/AlexanderTar/art-collection/internal/config"
	"github.com/AlexanderTar/art-collection/internal/gateway"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter mounts the full gateway at /rpc and the paymaster-only variant
// at /paymaster.
func NewRouter(cfg config.Config, rpc, paymaster *gateway.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"*"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.POST("/rpc", rpc.HandleJSONRPC)
	r.POST("/paymaster", paymaster.HandleJSONRPC)

	addrH := newAddressHandler(cfg.Sponsorship)
	api := r.Group("/api/v1")
	api.GET("/addresses", addrH.LookupAddress)

	return r
}
