package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/imtrack-backend/internal/data/db"
	"github.com/yungbote/imtrack-backend/internal/http"
	httpH "github.com/yungbote/imtrack-backend/internal/http/handlers"
	httpMW "github.com/yungbote/imtrack-backend/internal/http/middleware"
	"github.com/yungbote/imtrack-backend/internal/observability"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	Material    *httpH.MaterialHandler
	Certificate *httpH.CertificateHandler
	Evaluation  *httpH.EvaluationHandler
}

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireHandlers(a *App) Handlers {
	a.Log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(db.Pinger{DB: a.DB}),
		Material:    httpH.NewMaterialHandler(a.Log, a.Materials, a.Certificates, a.Cfg.Material.MaxUploadBytes),
		Certificate: httpH.NewCertificateHandler(a.Log, a.Certificates),
		Evaluation:  httpH.NewEvaluationHandler(a.Log, a.Evaluations),
	}
}

func wireMiddleware(a *App) Middleware {
	a.Log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(a.Log, a.Tokens),
	}
}

func wireRouter(a *App, metrics *observability.Metrics) *gin.Engine {
	handlers := wireHandlers(a)
	middleware := wireMiddleware(a)
	serviceName := ""
	if a.Cfg.Otel.Enabled {
		serviceName = a.Cfg.Otel.ServiceName
	}
	return http.NewRouter(http.RouterConfig{
		Log:                a.Log,
		AuthMiddleware:     middleware.Auth,
		Metrics:            metrics,
		ServiceName:        serviceName,
		CORSOrigins:        a.Cfg.Server.CORSOrigins,
		MaterialHandler:    handlers.Material,
		CertificateHandler: handlers.Certificate,
		EvaluationHandler:  handlers.Evaluation,
		HealthHandler:      handlers.Health,
	})
}
