package api

import (
	"log/slog"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/nekogravitycat/espaco-booking-backend/internal/auth"
	"github.com/nekogravitycat/espaco-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/espaco-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/mw"
	"github.com/nekogravitycat/espaco-booking-backend/internal/space"
	spaceHttp "github.com/nekogravitycat/espaco-booking-backend/internal/space/http"
	"github.com/nekogravitycat/espaco-booking-backend/internal/user"
	userHttp "github.com/nekogravitycat/espaco-booking-backend/internal/user/http"
)

// Config holds the services and settings the router is assembled from.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *slog.Logger

	UserService    user.Service
	SpaceService   space.Service
	BookingService booking.Service
	Colorizer      *booking.Colorizer
	JWTManager     *auth.JWTManager

	CalendarCache  *mw.ResponseCache // nil disables calendar caching
	WriteRateLimit float64           // 0 disables write rate limiting
	WriteRateBurst int
}

// passthrough is used in place of optional middleware that is turned off.
func passthrough(c *gin.Context) { c.Next() }

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:5173", // Frontend dev server
		"http://localhost:8081", // Swagger
	}
	if cfg.IsProduction {
		corsConfig.AllowOrigins = splitOrigins(cfg.ProdOrigins)
		if len(corsConfig.AllowOrigins) == 0 {
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", requestIDHeader}
	corsConfig.ExposeHeaders = []string{requestIDHeader, "X-Cache"}
	r.Use(cors.New(corsConfig))

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r.Use(RequestLogger(logger))

	// authMiddleware: Validates the JWT and loads the caller's current role.
	authMiddleware := Authenticate(cfg.JWTManager, cfg.UserService)
	// adminMiddleware: Further checks that the caller is an admin.
	adminMiddleware := auth.RequireAdmin()

	bookingMw := bookingHttp.Middlewares{
		Auth:          authMiddleware,
		WriteLimit:    passthrough,
		CalendarCache: passthrough,
		Invalidate:    passthrough,
	}
	if cfg.WriteRateLimit > 0 {
		bookingMw.WriteLimit = mw.RateLimiter(rate.Limit(cfg.WriteRateLimit), max(cfg.WriteRateBurst, 1))
	}
	if cfg.CalendarCache != nil {
		bookingMw.CalendarCache = cfg.CalendarCache.Middleware()
		bookingMw.Invalidate = cfg.CalendarCache.InvalidateOnWrite()
	}

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	spaceHandler := spaceHttp.NewHandler(cfg.SpaceService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.Colorizer)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, adminMiddleware)
		spaceHttp.RegisterRoutes(v1, spaceHandler, authMiddleware, bookingMw.Invalidate)
		bookingHttp.RegisterRoutes(v1, bookingHandler, bookingMw)
	}

	return r
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
