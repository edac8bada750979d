package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/trueque/marketplace/docs"
	"github.com/trueque/marketplace/internal/api/handler"
	"github.com/trueque/marketplace/internal/api/middleware"
	"github.com/trueque/marketplace/internal/core/domain"
	"github.com/trueque/marketplace/internal/core/ports"
	"github.com/trueque/marketplace/internal/core/search"
	"github.com/trueque/marketplace/internal/core/service"
	"github.com/trueque/marketplace/internal/pkg/config"
	"github.com/trueque/marketplace/pkg/logger"
)

// signInPath is where the guard sends anonymous visitors; the SPA shell owns
// the route.
const signInPath = "/login"

// Deps bundles everything the route table needs. main constructs the stores
// so it can drive their lifecycle (refdata load, shutdown close).
type Deps struct {
	Config    *config.Config
	Mongo     *mongo.Database
	Redis     *redis.Client
	RefData   *service.RefDataStore
	Registry  *service.SessionRegistry
	Carrier   *search.Carrier
	Listings  ports.ListingService
	Provinces ports.ProvinceRepository
	Recorder  handler.SearchRecorder
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(logger.Get())

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{d.Config.WebOrigin},
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderContentType},
		ExposeHeaders:    []string{middleware.HistoryHeader},
	}))
	e.Use(echoprometheus.NewMiddleware("trueque"))
	e.Use(middleware.Session(d.Registry))

	// --- Handlers ---
	secureCookies := d.Config.Env == "production"
	authHandler := handler.NewAuthHandler(d.Registry, handler.CookieSettings{
		Secure: secureCookies,
		TTL:    d.Config.TokenTTL,
	})
	listingHandler := handler.NewListingHandler(d.Listings, d.RefData, d.Carrier)
	searchHandler := handler.NewSearchHandler(d.Carrier, d.Listings, d.Recorder)
	refdataHandler := handler.NewRefDataHandler(d.RefData, d.Provinces)

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Mongo, d.Redis, d.RefData).Readiness)

	apiGroup := e.Group("/api")

	// --- Auth ---
	apiGroup.POST("/auth/register", authHandler.Register)
	apiGroup.POST("/auth/login", authHandler.Login)
	apiGroup.POST("/auth/logout", authHandler.Logout)
	apiGroup.GET("/auth/verify", authHandler.Verify)

	// --- Public browse and search surfaces ---
	apiGroup.GET("/servicios", listingHandler.List)
	apiGroup.POST("/search/intents", searchHandler.PostIntent)
	apiGroup.GET("/search/most-searched", searchHandler.MostSearched)

	// --- Public reference data ---
	apiGroup.GET("/categorias", refdataHandler.Categories)
	apiGroup.GET("/categorias/:id", refdataHandler.Category)
	apiGroup.GET("/subcategorias", refdataHandler.Subcategories)
	apiGroup.GET("/subcategorias/:id", refdataHandler.Subcategory)
	apiGroup.GET("/provincias", refdataHandler.Provinces)
	apiGroup.GET("/provincias/:id", refdataHandler.Province)
	apiGroup.GET("/municipios", refdataHandler.Municipalities)
	apiGroup.GET("/municipios/:id", refdataHandler.Municipality)

	// --- Guarded routes: resolved-anonymous sessions are redirected ---
	guarded := apiGroup.Group("", middleware.Guard(signInPath))
	guarded.GET("/servicios/:id", listingHandler.Get)
	guarded.POST("/servicios", listingHandler.Create)
	guarded.PUT("/servicios/:id", listingHandler.Update)
	guarded.DELETE("/servicios/:id", listingHandler.Delete)
	guarded.GET("/perfil", listingHandler.Profile)
	guarded.GET("/guardados", listingHandler.Favorites)
	guarded.POST("/guardados/:id", listingHandler.SaveFavorite)
	guarded.DELETE("/guardados/:id", listingHandler.RemoveFavorite)

	// --- Admin reference-data mutations ---
	admin := guarded.Group("", middleware.RBAC(domain.RoleAdmin))
	admin.POST("/provincias", refdataHandler.CreateProvince)
	admin.PUT("/provincias/:id", refdataHandler.UpdateProvince)
	admin.DELETE("/provincias/:id", refdataHandler.DeleteProvince)
	admin.POST("/municipios", refdataHandler.CreateMunicipality)
	admin.PUT("/municipios/:id", refdataHandler.UpdateMunicipality)
	admin.DELETE("/municipios/:id", refdataHandler.DeleteMunicipality)

	return e
}
