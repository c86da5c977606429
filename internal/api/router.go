package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roomreserve/room-booking-backend/internal/auth"
	"github.com/roomreserve/room-booking-backend/internal/booking"
	bookingHttp "github.com/roomreserve/room-booking-backend/internal/booking/http"
	"github.com/roomreserve/room-booking-backend/internal/room"
	roomHttp "github.com/roomreserve/room-booking-backend/internal/room/http"
)

// Config holds the dependencies the router needs.
type Config struct {
	IsProduction   bool
	ProdOrigins    string
	RoomService    room.Service
	BookingService booking.Service
	JWTManager     *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Metrics, Auth)
// and registering routes for the catalog and booking modules.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	r.Use(gin.Logger(), gin.Recovery())
	r.Use(MetricsMiddleware())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	managerMiddleware := auth.RequireManager()

	roomHandler := roomHttp.NewHandler(cfg.RoomService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		roomHttp.RegisterRoutes(v1, roomHandler, authMiddleware, managerMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, managerMiddleware)
	}

	return r
}
