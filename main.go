package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"
	"github.com/spf13/cobra"

	"github.com/tripgate/tripgate/config"
	"github.com/tripgate/tripgate/database"
	"github.com/tripgate/tripgate/destination"
	"github.com/tripgate/tripgate/gateway"
	"github.com/tripgate/tripgate/identity"
	"github.com/tripgate/tripgate/logger"
)

// server is what every service package exposes: a Start/Stop pair bound to
// its own listener.
type server interface {
	Start() error
	Stop() error
}

func initLogger() {
	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Notice:
		logger.InitLogger(logging.NOTICE)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatal("unknown log level:", config.GetLogLevel())
	}
}

// runServices starts the given servers and blocks on shutdown signals.
// SIGHUP restarts every server with freshly read configuration, SIGTERM and
// SIGINT stop them.
func runServices(needDB bool, build func() []server) {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogger()
	defer logger.CloseLogger()

	if needDB {
		if err := database.InitDB(config.GetDBPath()); err != nil {
			log.Fatal(err)
		}
		defer func() {
			if err := database.CloseDB(); err != nil {
				logger.Warning("close database err:", err)
			}
		}()
	}

	servers := build()
	if err := startAll(servers); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Noticef("received %v, restarting services", sig)
			stopAll(servers)
			servers = build()
			if err := startAll(servers); err != nil {
				log.Println(err)
				return
			}
		default:
			logger.Notice("shutting down on signal", sig)
			stopAll(servers)
			return
		}
	}
}

func startAll(servers []server) error {
	for _, s := range servers {
		if err := s.Start(); err != nil {
			return err
		}
	}
	return nil
}

func stopAll(servers []server) {
	for _, s := range servers {
		if err := s.Stop(); err != nil {
			logger.Warning("stop server err:", err)
		}
	}
}

func main() {
	// A local .env is a convenience; absence is not an error.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   config.GetName(),
		Short: "Role-scoped credential services: issuer, gateway and destination resource service",
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "identity",
			Short: "Run the credential issuer service",
			Run: func(cmd *cobra.Command, args []string) {
				runServices(true, func() []server {
					return []server{identity.NewServer()}
				})
			},
		},
		&cobra.Command{
			Use:   "destination",
			Short: "Run the destination resource service",
			Run: func(cmd *cobra.Command, args []string) {
				runServices(true, func() []server {
					return []server{destination.NewServer()}
				})
			},
		},
		&cobra.Command{
			Use:   "gateway",
			Short: "Run the authorization gateway",
			Run: func(cmd *cobra.Command, args []string) {
				runServices(false, func() []server {
					return []server{gateway.NewServer()}
				})
			},
		},
		&cobra.Command{
			Use:   "run",
			Short: "Run all three services in one process",
			Run: func(cmd *cobra.Command, args []string) {
				runServices(true, func() []server {
					return []server{
						identity.NewServer(),
						destination.NewServer(),
						gateway.NewServer(),
					}
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(config.GetVersion())
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
