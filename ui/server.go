package ui

import (
	"html/template"
	"net/http"

	"assessr/app"
	"assessr/internal"
	"assessr/internal/metrics"
	"assessr/ui/middleware"

	"github.com/gin-gonic/gin"
)

// Services bundles the application services the HTTP layer exposes
type Services struct {
	Ratios      *app.RatioService
	Comparables *app.ComparablesService
	Notices     *app.NoticeService
	Appeals     *app.AppealService
	Parcels     *app.ParcelService
}

// ServerConfig tunes the HTTP layer
type ServerConfig struct {
	ExportRatePerSecond float64
	ExportBurst         int
}

// Server is the gin application serving the JSON/htmx API
type Server struct {
	router        *gin.Engine
	services      Services
	templates     *template.Template
	exportLimiter *middleware.RateLimiter
	metrics       *metrics.Observer
	logger        *internal.Logger
}

// NewServer creates the gin engine and registers every route. A nil observer
// disables request metrics.
func NewServer(services Services, cfg ServerConfig, observer *metrics.Observer, logger *internal.Logger) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}

	s := &Server{
		router:        gin.New(),
		services:      services,
		templates:     templates,
		exportLimiter: middleware.NewRateLimiter(cfg.ExportRatePerSecond, cfg.ExportBurst),
		metrics:       observer,
		logger:        logger.With("HTTP"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Handler returns the gin engine as an http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	if s.metrics != nil {
		s.router.Use(s.metrics.GinMiddleware())
	}
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")

	ratios := api.Group("/ratios")
	ratios.GET("/statistics", s.handleRatioStatistics)
	ratios.GET("/histogram", s.handleRatioHistogram)
	ratios.GET("/study", s.handleRatioStudy)
	ratios.GET("/trend", s.handleRatioTrend)

	exports := ratios.Group("", middleware.RateLimit(s.exportLimiter))
	exports.GET("/export.csv", s.handleRatioExportCSV)
	exports.GET("/export.xlsx", s.handleRatioExportXLSX)

	parcels := api.Group("/parcels")
	parcels.GET("", s.handleParcelSearch)
	parcels.GET("/:id", s.handleParcelDetail)
	parcels.GET("/:id/comparables", s.handleComparables)
	parcels.GET("/:id/notice", s.handleNotice)
	parcels.GET("/:id/appeals", s.handleListAppeals)
	parcels.POST("/:id/appeals", s.handleFileAppeal)

	api.GET("/comparables/presets", s.handleComparablePresets)
	api.PATCH("/appeals/:id", s.handleUpdateAppeal)
	api.DELETE("/appeals/:id", s.handleDeleteAppeal)
}
