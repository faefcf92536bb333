// Package main runs the posture simulator against a live server.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/ergowatch/internal/domain/scoring"
	"github.com/okian/ergowatch/internal/simulate"
	"github.com/okian/ergowatch/pkg/logger"
)

func main() {
	cfg, err := simulate.ParseFlags(os.Args[1:], os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	if err := logger.Init(); err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := simulate.Run(ctx, cfg, scoring.NewClassifier()); err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}
