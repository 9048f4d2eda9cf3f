package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/modoocon/modoocon/internal/abstract"
	abstractdomain "github.com/modoocon/modoocon/internal/abstract/domain"
	"github.com/modoocon/modoocon/internal/config"
	"github.com/modoocon/modoocon/internal/event"
	eventdomain "github.com/modoocon/modoocon/internal/event/domain"
	"github.com/modoocon/modoocon/internal/exchange"
	"github.com/modoocon/modoocon/internal/identity"
	identitydomain "github.com/modoocon/modoocon/internal/identity/domain"
	"github.com/modoocon/modoocon/internal/institution"
	institutiondomain "github.com/modoocon/modoocon/internal/institution/domain"
	"github.com/modoocon/modoocon/internal/mailer"
	"github.com/modoocon/modoocon/internal/observability"
	obslogger "github.com/modoocon/modoocon/internal/observability/logger"
	obsmetrics "github.com/modoocon/modoocon/internal/observability/metrics"
	obstracing "github.com/modoocon/modoocon/internal/observability/tracing"
	"github.com/modoocon/modoocon/internal/payment"
	paymentdomain "github.com/modoocon/modoocon/internal/payment/domain"
	"github.com/modoocon/modoocon/internal/payment/lock"
	"github.com/modoocon/modoocon/internal/registration"
	registrationdomain "github.com/modoocon/modoocon/internal/registration/domain"
	"github.com/modoocon/modoocon/internal/settings"
	settingsdomain "github.com/modoocon/modoocon/internal/settings/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	institution.Module,
	identity.Module,
	event.Module,
	registration.Module,
	exchange.Module,
	lock.Module,
	mailer.Module,
	payment.Module,
	abstract.Module,
	settings.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:          12 * time.Hour,
	}))
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	users         identitydomain.Service
	institutions  institutiondomain.Service
	events        eventdomain.Service
	registrations registrationdomain.Service
	payments      paymentdomain.Service
	abstracts     abstractdomain.Service
	settings      settingsdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	Users         identitydomain.Service
	Institutions  institutiondomain.Service
	Events        eventdomain.Service
	Registrations registrationdomain.Service
	Payments      paymentdomain.Service
	Abstracts     abstractdomain.Service
	Settings      settingsdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("http.server"),
		users:         p.Users,
		institutions:  p.Institutions,
		events:        p.Events,
		registrations: p.Registrations,
		payments:      p.Payments,
		abstracts:     p.Abstracts,
		settings:      p.Settings,
	}

	svc.registerPublicRoutes()
	svc.registerAuthedRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPublicRoutes() {
	api := s.engine.Group("/api")

	api.GET("/events", s.ListPublishedEvents)
	api.GET("/events/:slug", s.GetEventBySlug)
	api.GET("/institutions", s.SearchInstitutions)
}

func (s *Server) registerAuthedRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	api.POST("/events/:slug/register", s.Register)
	api.DELETE("/events/:slug/register", s.CancelRegistration)
	api.GET("/me/registrations", s.MyRegistrations)
	api.GET("/me/payments", s.MyPayments)

	api.POST("/payments/card/confirm", s.ConfirmCardPayment)
	api.POST("/payments/paypal/orders", s.CreatePayPalOrder)
	api.POST("/payments/paypal/orders/:id/capture", s.CapturePayPalOrder)
	api.POST("/payments/:id/cancel", s.CancelPayment)

	api.POST("/events/:slug/abstracts", s.SubmitAbstract)
	api.GET("/events/:slug/abstracts/mine", s.MyAbstract)
	api.DELETE("/abstracts/:id", s.WithdrawAbstract)
	api.POST("/events/:slug/abstracts/:id/votes", s.VoteAbstract)
	api.DELETE("/events/:slug/abstracts/:id/votes", s.UnvoteAbstract)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin", s.AuthRequired())

	admin.GET("/events", s.RequireStaff(), s.ListAllEvents)
	admin.POST("/events", s.RequireStaff(), s.CreateEvent)
	admin.PATCH("/events/:id", s.RequireEventStaff("id"), s.UpdateEvent)
	admin.POST("/events/:id/publish", s.RequireEventStaff("id"), s.SetEventPublished)

	admin.GET("/events/:id/questions", s.RequireEventStaff("id"), s.ListQuestions)
	admin.POST("/events/:id/questions", s.RequireEventStaff("id"), s.UpsertQuestion)
	admin.PUT("/events/:id/templates", s.RequireEventStaff("id"), s.UpsertTemplate)

	admin.GET("/events/:id/admins", s.RequireEventStaff("id"), s.ListEventAdmins)
	admin.POST("/events/:id/admins", s.RequireStaff(), s.GrantEventAdmin)
	admin.DELETE("/events/:id/admins/:userId", s.RequireStaff(), s.RevokeEventAdmin)

	admin.GET("/events/:id/roster", s.RequireEventStaff("id"), s.Roster)
	admin.GET("/events/:id/payments", s.RequireEventStaff("id"), s.ListEventPayments)
	admin.POST("/payments/manual", s.RequireStaff(), s.RecordManualPayment)

	admin.GET("/events/:id/abstracts", s.RequireEventStaff("id"), s.TallyAbstracts)
	admin.POST("/events/:id/abstracts/:abstractId/decision", s.RequireEventStaff("id"), s.DecideAbstract)

	admin.POST("/institutions", s.RequireStaff(), s.CreateInstitution)
	admin.PATCH("/institutions/:id", s.RequireStaff(), s.UpdateInstitution)

	admin.GET("/settings", s.RequireStaff(), s.GetSettings)
	admin.PUT("/settings", s.RequireStaff(), s.SaveSettings)
}
