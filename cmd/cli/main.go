package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"

	"ai-act-intake-be/internal/bootstrap"
	"ai-act-intake-be/internal/config"
	"ai-act-intake-be/internal/console"
	"ai-act-intake-be/internal/pkg/logger"
	"ai-act-intake-be/pkg/intake"

	"github.com/fatih/color"
)

// Runs one intake session in the terminal. Logs go to files only.
func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] Invalid configuration:\n%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sysLogger := logger.NewIsolatedLogger(cfg.App.LogFilePath)
	defer sysLogger.Sync()

	color.HiBlack("Lade den Index aus %s ...", cfg.Rag.DocumentsDir)
	core, err := bootstrap.NewCore(ctx, cfg, sysLogger, nil)
	if err != nil {
		color.Red("Start fehlgeschlagen: %v", err)
		os.Exit(1)
	}
	color.HiBlack("Bereit. Beende den Chat mit %s.\n", console.ExitCommand)

	session := intake.NewSession("")
	ui := console.NewSurface(os.Stdin, os.Stdout)

	err = core.Flow.Run(ctx, session, ui)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		color.Red("Sitzung beendet: %v", err)
		os.Exit(1)
	}
}
