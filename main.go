package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"spinwheel/app/services"
	"spinwheel/bootstrap"
	btsConfig "spinwheel/config"
	"spinwheel/pkg/app"
	"spinwheel/pkg/config"
	"spinwheel/pkg/logger"
	"spinwheel/pkg/queue"
)

func init() {
	btsConfig.Initialize()
}

// App owns the HTTP server and the background workers.
type App struct {
	server  *http.Server
	worker  *queue.Worker
	cancel  context.CancelFunc
	watcher <-chan struct{}
}

func main() {
	env := parseFlags()

	ctx, cancel := context.WithCancel(context.Background())
	server := &App{cancel: cancel}

	svc := server.setupApplication(ctx, env)

	server.server = &http.Server{
		Addr:              ":" + config.Get("app.port"),
		Handler:           setupServer(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	server.start()
}

func parseFlags() string {
	var env string
	flag.StringVar(&env, "env", "", "load .env.<env>, e.g. --env=testing loads .env.testing")
	flag.Parse()
	return env
}

// setupApplication brings up config, logging, storage, the chain client
// and the background workers.
func (a *App) setupApplication(ctx context.Context, env string) *services.Container {
	config.InitConfig(env)

	bootstrap.SetupLogger()

	bootstrap.SetupDB()

	bootstrap.SetupRedis()

	client := bootstrap.SetupChain(ctx)

	qs := bootstrap.SetupQueue()
	svc := bootstrap.SetupServices(client, qs)
	if qs != nil {
		a.worker = bootstrap.StartWorker(ctx, qs, svc.Payouts)
	}

	a.watcher = bootstrap.StartWatcher(ctx, svc, client)
	return svc
}

func setupServer(svc *services.Container) *gin.Engine {
	if app.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	bootstrap.SetupRoute(router, svc)
	return router
}

// start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (a *App) start() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.InfoString("Server", "Start", "listening on "+a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-quit
	logger.InfoString("Server", "Stop", "shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		logger.ErrorString("Server", "Shutdown", err.Error())
	}

	a.cancel()
	if a.worker != nil {
		a.worker.Stop()
	}
	select {
	case <-a.watcher:
	case <-ctx.Done():
	}

	logger.InfoString("Server", "Stop", "server stopped")
	_ = logger.Logger.Sync()
}
