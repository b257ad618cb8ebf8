package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/imtrack-backend/internal/app"
	imhttp "github.com/yungbote/imtrack-backend/internal/http"
)

func main() {
	cfg, err := app.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, app.Options{HTTP: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		os.Exit(1)
	}

	srv := &imhttp.Server{Engine: application.Router}
	application.Log.Info("Starting HTTP server", "addr", cfg.Server.Addr)
	runErr := srv.Run(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
	if runErr != nil {
		application.Log.Error("HTTP server stopped", "error", runErr)
	} else {
		application.Log.Info("HTTP server stopped")
	}
	if err := application.Close(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
