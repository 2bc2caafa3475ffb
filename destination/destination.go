// Package destination hosts the resource service owning the destination
// collection, with its own admin guard as a second enforcement point behind
// the gateway.
package destination

import (
	"context"
	"io"
	"net"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/tripgate/tripgate/config"
	"github.com/tripgate/tripgate/logger"
	"github.com/tripgate/tripgate/token"
	"github.com/tripgate/tripgate/util/common"
)

type Server struct {
	httpServer *http.Server
	listener   net.Listener

	controller *Controller

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

	g := engine.Group("/")
	s.controller = NewController(g, codec)

	return engine, nil
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

	listener, err := net.Listen("tcp", config.GetDestinationAddr())
	if err != nil {
		return err
	}
	logger.Info("Destination server running HTTP on", listener.Addr())

	s.listener = listener
	s.httpServer = &http.Server{Handler: engine}

	go func() {
		_ = s.httpServer.Serve(listener)
	}()

	return nil
}

func (s *Server) Stop() error {
	s.cancel()

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
