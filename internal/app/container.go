package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/roomreserve/room-booking-backend/internal/api"
	"github.com/roomreserve/room-booking-backend/internal/auth"
	"github.com/roomreserve/room-booking-backend/internal/booking"
	"github.com/roomreserve/room-booking-backend/internal/notify"
	"github.com/roomreserve/room-booking-backend/internal/room"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	KafkaBrokers []string
	KafkaTopic   string
	Logger       *zap.Logger
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Notifier   *notify.KafkaNotifier // nil when no brokers are configured
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Room Catalog Module
	roomRepo := room.NewPgxRepository(cfg.DBPool)
	roomService := room.NewService(roomRepo)

	// Notification collaborator: Kafka when configured, no-op otherwise.
	var kafkaNotifier *notify.KafkaNotifier
	var notifier booking.Notifier = booking.NopNotifier{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier = notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.Logger)
		notifier = kafkaNotifier
	}

	// Booking Engine Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, roomService, notifier, cfg.Logger)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		RoomService:    roomService,
		BookingService: bookingService,
		JWTManager:     jwtManager,
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Notifier:   kafkaNotifier,
	}
}
