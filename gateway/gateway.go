// Package gateway hosts the authorization gateway: the trust boundary that
// authenticates inbound requests, applies per-route role policy and relays
// to the backend services. It holds no store access of its own.
package gateway

import (
	"context"
	"io"
	"net"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/tripgate/tripgate/config"
	"github.com/tripgate/tripgate/logger"
	"github.com/tripgate/tripgate/token"
	"github.com/tripgate/tripgate/util/common"
)

type Server struct {
	httpServer *http.Server
	listener   net.Listener

	controller *Controller
	health     *HealthJob

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{ctx: ctx, cancel: cancel}
}

func (s *Server) initRouter() (*gin.Engine, error) {
	if !config.IsDebug() {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	secret := config.GetJWTSecret()
	if secret == "" {
		return nil, common.NewError("TG_JWT_SECRET is not set")
	}

	codec := token.NewCodec(secret, config.GetTokenTTL())
	relay := NewRelay(config.GetIdentityURL(), config.GetDestinationURL(), config.GetUpstreamTimeout())
	s.health = NewHealthJob(map[string]string{
		"identity":    config.GetIdentityURL(),
		"destination": config.GetDestinationURL(),
	}, config.GetUpstreamTimeout())

	g := engine.Group("/")
	s.controller = NewController(g, relay, s.health, codec)

	return engine, nil
}

func (s *Server) startTask() {
	s.cron = cron.New()
	s.cron.Start()

	// Prime the health snapshot right away, then probe every minute.
	go s.health.Run()
	if _, err := s.cron.AddJob("@every 1m", s.health); err != nil {
		logger.Warning("failed to schedule backend health job:", err)
	}
}

func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", config.GetGatewayAddr())
	if err != nil {
		return err
	}
	logger.Info("Gateway server running HTTP on", listener.Addr())

	s.listener = listener
	s.httpServer = &http.Server{Handler: engine}

	go func() {
		_ = s.httpServer.Serve(listener)
	}()

	s.startTask()

	return nil
}

func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}

	var err1, err2 error
	if s.httpServer != nil {
		err1 = s.httpServer.Shutdown(s.ctx)
	}
	if s.listener != nil {
		err2 = s.listener.Close()
	}
	return common.Combine(err1, err2)
}

func (s *Server) GetCtx() context.Context {
	return s.ctx
}
