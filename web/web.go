// Package web provides the HTTP server of the coupon panel: routing, session
// store, the guard middleware chain and the background sweep job. Business
// rendering (HTML, QR, CSV, email) lives outside this core.
package web

import (
	"context"
	"io"
	"net"
	"net/http"

	"coupon-ui/config"
	"coupon-ui/database"
	"coupon-ui/logger"
	"coupon-ui/web/controller"
	"coupon-ui/web/job"
	"coupon-ui/web/limiter"
	"coupon-ui/web/middleware"
	"coupon-ui/web/service"
	"coupon-ui/web/session"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

// Server wires the store, services, guards and controllers together. Built
// once at process start and passed by reference; no hidden global state.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	db        *database.Database
	admission *limiter.Admission

	index *controller.IndexController
	panel *controller.PanelController

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer(db *database.Database) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		db:     db,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	gormDB, err := s.db.DB()
	if err != nil {
		return nil, err
	}

	s.admission = limiter.NewAdmission(limiter.Config{
		Login: limiter.Policy{
			Window: config.LoginWindow(),
			Max:    config.LoginMaxAttempts(),
			Lock:   config.LoginLock(),
		},
		SubmitOrigin: limiter.Policy{
			Window: config.SubmitWindow(),
			Max:    config.SubmitMaxPerOrigin(),
			Lock:   config.SubmitLock(),
		},
		SubmitEmail: limiter.Policy{
			Window: config.SubmitWindow(),
			Max:    config.SubmitMaxPerIdentity(),
			Lock:   config.SubmitLock(),
		},
		DailyCap: config.SubmitDailyCap(),
	})

	tenantService := service.NewTenantService(gormDB)
	authService := service.NewAuthService(gormDB)
	userService := service.NewUserService(gormDB)
	campaignService := service.NewCampaignService(gormDB)
	couponService := service.NewCouponService(gormDB)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	store := cookie.NewStore([]byte(config.GetSessionSecret()))
	engine.Use(sessions.Sessions(session.CookieName, store))

	if domain := config.GetPanelDomain(); domain != "" {
		engine.Use(middleware.DomainValidator(domain))
	}
	engine.Use(middleware.LegacyPanelRedirect())

	root := engine.Group("/")
	s.index = controller.NewIndexController(root, authService, tenantService, s.admission, s.db.Ping)

	// Tenant-scoped routing: the slug decides the tenant, the guards decide
	// whether the session may act on it.
	scoped := engine.Group("/t/:slug")
	scoped.Use(middleware.TenantResolver(tenantService))
	s.panel = controller.NewPanelController(scoped, campaignService, couponService, userService, s.admission)

	// Legacy read-only endpoints: tenant comes from session claims or the
	// referer, never defaulted.
	legacy := engine.Group("/public")
	legacy.Use(middleware.LegacyTenantResolver(tenantService))
	s.panel.InitLegacyRouter(legacy)

	return engine, nil
}

func (s *Server) startJobs() {
	s.cron = cron.New()
	if _, err := s.cron.AddJob("@every 5m", job.NewLimiterSweepJob(s.admission)); err != nil {
		logger.Warning("scheduling limiter sweep:", err)
	}
	s.cron.Start()
}

func (s *Server) Start() error {
	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := config.GetListenAddr()
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.startJobs()

	s.httpServer = &http.Server{Handler: engine}
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("web server:", err)
		}
	}()

	logger.Infof("web server listening on %s", listenAddr)
	return nil
}

func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(context.Background())
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	return err
}
