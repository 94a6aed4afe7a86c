package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/espaco-booking-backend/internal/api"
	"github.com/nekogravitycat/espaco-booking-backend/internal/auth"
	"github.com/nekogravitycat/espaco-booking-backend/internal/booking"
	"github.com/nekogravitycat/espaco-booking-backend/internal/calendar"
	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/mw"
	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/storage"
	"github.com/nekogravitycat/espaco-booking-backend/internal/space"
	"github.com/nekogravitycat/espaco-booking-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	Logger       *slog.Logger
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int

	StoragePath      string
	PaletteFile      string
	CalendarCacheTTL time.Duration
	WriteRateLimit   float64
	WriteRateBurst   int
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Colorizer  *booking.Colorizer
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	fileStorage, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		return nil, err
	}

	palette, past, err := calendar.LoadPalette(cfg.PaletteFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load palette: %w", err)
	}
	engine, err := calendar.NewEngine(palette)
	if err != nil {
		return nil, err
	}
	colorizer := booking.NewColorizer(engine, past, time.Now)

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher, logger)

	// Space Module
	spaceRepo := space.NewPgxRepository(cfg.DBPool)
	spaceService := space.NewService(spaceRepo, fileStorage, logger, 0)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, spaceService, logger, time.Now)

	var calendarCache *mw.ResponseCache
	if cfg.CalendarCacheTTL > 0 {
		calendarCache = mw.NewResponseCache(cfg.CalendarCacheTTL)
	}

	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		Logger:         logger,
		UserService:    userService,
		SpaceService:   spaceService,
		BookingService: bookingService,
		Colorizer:      colorizer,
		JWTManager:     jwtManager,
		CalendarCache:  calendarCache,
		WriteRateLimit: cfg.WriteRateLimit,
		WriteRateBurst: cfg.WriteRateBurst,
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Colorizer:  colorizer,
	}, nil
}
