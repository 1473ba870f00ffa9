package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/tacusci/logging/v2"
	"github.com/takama/daemon"
	"github.com/tauraamui/scandaemon/internal/config"
	"github.com/tauraamui/scandaemon/pkg/api"
	"github.com/tauraamui/scandaemon/pkg/configdef"
	db "github.com/tauraamui/scandaemon/pkg/database"
	"github.com/tauraamui/scandaemon/pkg/database/repos"
	"github.com/tauraamui/scandaemon/pkg/log"
	"github.com/tauraamui/scandaemon/pkg/scanner"
	"github.com/tauraamui/scandaemon/pkg/video/videobackend"
	"gocv.io/x/gocv"
)

const (
	name        = "scan_daemon"
	description = "Scan service daemon which reads barcodes from camera streams"
)

type Service struct {
	daemon.Daemon
}

// Setup writes the default config, creates the local DB and asks for
// root admin credentials.
func (service *Service) Setup() (string, error) {
	log.Info("Setting up scandaemon service...")

	err := config.DefaultCreator().Create()
	if err != nil {
		if !errors.Is(err, configdef.ErrConfigAlreadyExists) {
			return "", err
		}
		log.Error(err.Error())
	}

	err = db.Setup()
	if err != nil {
		if !errors.Is(err, db.ErrDBAlreadyExists) {
			return "", err
		}
		log.Error(err.Error())
	}

	return "Setup successful...", nil
}

func (service *Service) RemoveSetup() (string, error) {
	log.Info("Removing setup for scandaemon service...")
	if err := db.Destroy(); err != nil {
		log.Error("unable to delete database file: %s", err.Error())
	}

	if err := config.DefaultDestroyer().Destroy(); err != nil {
		log.Error("unable to delete config file: %s", err.Error())
	}

	return "Removing setup successful...", nil
}

func (service *Service) Manage() (string, error) {
	usage := "Usage: scand setup | remove-setup | install | remove | start | stop | status"

	if len(os.Args) > 1 {
		command := os.Args[1]
		switch command {
		case "setup":
			return service.Setup()
		case "remove-setup":
			return service.RemoveSetup()
		case "install":
			return service.Install()
		case "remove":
			return service.Remove()
		case "start":
			return service.Start()
		case "stop":
			return service.Stop()
		case "status":
			return service.Status()
		default:
			return usage, nil
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	log.Info("Starting scan daemon...")

	conn, err := db.Connect()
	if err != nil {
		return "", fmt.Errorf("unable to connect to database, has setup been run? %w", err)
	}

	server := scanner.NewServer(
		config.DefaultResolver(),
		videobackend.Resolve(os.Getenv("SCAN_DAEMON_VIDEO_BACKEND")),
		&repos.ScanRepository{DB: conn},
	)
	if err := server.LoadConfiguration(); err != nil {
		return "", err
	}

	secret := server.Config().Secret
	if len(secret) == 0 {
		log.Warn("No secret configured, issued tokens will not survive a restart")
		secret = uuid.NewString()
	}

	httpServer := api.Start(server.Config().APIAddress, api.NewRouter(api.Options{
		Secret:   secret,
		Sessions: server,
		Users:    &repos.UserRepository{DB: conn},
	}))

	ctx, cancelStartup := context.WithCancel(context.Background())
	go startupServer(ctx, server)

	killSignal := <-interrupt
	fmt.Print("\r")
	log.Error("Received signal: %s", killSignal)

	cancelStartup()
	log.Info("Shutting down API server...")
	if err := api.Shutdown(httpServer, 5*time.Second); err != nil {
		log.Error("unable to shutdown API server: %v", err)
	}
	log.Info("Shutting down server...")
	<-server.Shutdown()

	if logging.CurrentLoggingLevel == logging.DebugLevel {
		var b bytes.Buffer
		gocv.MatProfile.WriteTo(&b, 1) //nolint
		log.Debug("Remaining Mat allocations: %d\n%s", gocv.MatProfile.Count(), b.String())
	}

	return "Shutdown successful... BYE! 👋", nil
}

func startupServer(ctx context.Context, server scanner.Server) {
	connectToCameras(ctx, server)
	server.SetupProcesses()
	server.RunProcesses()
}

func connectToCameras(ctx context.Context, server scanner.Server) {
	errs := server.ConnectWithCancel(ctx)
	for _, err := range errs {
		log.Error(err.Error())
	}
}

func init() {
	log.SetLevel(os.Getenv("SCAN_DAEMON_LOGGING_LEVEL"))
}

func main() {
	daemonType := daemon.SystemDaemon
	if runtime.GOOS == "darwin" {
		daemonType = daemon.UserAgent
	}

	srv, err := daemon.New(name, description, daemonType)
	if err != nil {
		logging.Error(err.Error()) //nolint
		os.Exit(1)
	}

	service := &Service{srv}
	status, err := service.Manage()
	if err != nil {
		logging.Error(err.Error()) //nolint
		os.Exit(1)
	}

	logging.Info(status) //nolint
}
