package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/imtrack-backend/internal/domain/user"
	httpH "github.com/yungbote/imtrack-backend/internal/http/handlers"
	httpMW "github.com/yungbote/imtrack-backend/internal/http/middleware"
	"github.com/yungbote/imtrack-backend/internal/observability"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *httpMW.AuthMiddleware
	Metrics        *observability.Metrics
	ServiceName    string
	CORSOrigins    []string

	MaterialHandler    *httpH.MaterialHandler
	CertificateHandler *httpH.CertificateHandler
	EvaluationHandler  *httpH.EvaluationHandler
	HealthHandler      *httpH.HealthHandler
}

var (
	adminRoles = []string{user.RoleAdmin, user.RoleUTLDO, user.RoleTechnical}

	evaluationWriters = []string{user.RolePIMEC, user.RoleTechnical}
	evaluationReaders = []string{user.RolePIMEC, user.RoleUTLDO, user.RoleTechnical}
	evaluationKeepers = []string{user.RoleTechnical}
)

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Certificates (public)
		if cfg.CertificateHandler != nil {
			api.GET("/certificates/verify/:code", cfg.CertificateHandler.Verify)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}
		only := func(roles []string, h gin.HandlerFunc) []gin.HandlerFunc {
			if cfg.AuthMiddleware == nil {
				return []gin.HandlerFunc{h}
			}
			return []gin.HandlerFunc{cfg.AuthMiddleware.RequireRole(roles...), h}
		}
		admin := func(h gin.HandlerFunc) []gin.HandlerFunc { return only(adminRoles, h) }

		// Materials
		if mh := cfg.MaterialHandler; mh != nil {
			protected.POST("/materials/assign", admin(mh.Assign)...)
			protected.POST("/materials/remind", admin(mh.Remind)...)
			protected.POST("/materials", mh.Upload)
			protected.GET("/materials", mh.List)
			protected.GET("/materials/:id", mh.Get)
			protected.PATCH("/materials/:id", mh.Update)
			protected.DELETE("/materials/:id", mh.Delete)
			protected.POST("/materials/:id/restore", mh.Restore)
			protected.GET("/materials/:id/url", mh.DocumentURL)
			protected.POST("/materials/:id/analyze", mh.Analyze)
			protected.POST("/materials/:id/certificates", admin(mh.IssueCertificates)...)
			protected.POST("/materials/:id/appreciation", admin(mh.SendAppreciation)...)

			protected.GET("/requirements/recommendation-letter/view", mh.ViewRecommendationLetter)
			protected.GET("/requirements/recommendation-letter/redirect", mh.RedirectRecommendationLetter)
			protected.GET("/requirements/recommendation-letter/check", mh.CheckRecommendationLetter)
			protected.GET("/requirements/recommendation-letter/download", mh.DownloadRecommendationLetter)
		}

		// Certificates
		if ch := cfg.CertificateHandler; ch != nil {
			protected.GET("/certificates/me", ch.ListMine)
			protected.POST("/certificates/backfill", admin(ch.Backfill)...)
		}

		// Evaluations
		if eh := cfg.EvaluationHandler; eh != nil {
			protected.POST("/evaluations", only(evaluationWriters, eh.Create)...)
			protected.GET("/evaluations", only(evaluationKeepers, eh.List)...)
			protected.GET("/evaluations/:id", only(evaluationReaders, eh.Get)...)
			protected.PATCH("/evaluations/:id", only(evaluationWriters, eh.Update)...)
			protected.PUT("/evaluations/:id", only(evaluationWriters, eh.Update)...)
			protected.DELETE("/evaluations/:id", only(evaluationKeepers, eh.Delete)...)
			protected.POST("/evaluations/:id/restore", only(evaluationKeepers, eh.Restore)...)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "route not found", "code": "not_found"}})
	})
	return r
}
