package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ebfe/scard"
	"github.com/gregLibert/thai-id-reader/pkg/pcsc"
	"github.com/gregLibert/thai-id-reader/pkg/session"
)

// Version is set at build time.
var Version = "dev"

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Getenv, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	if cfg.Command == "version" {
		fmt.Printf("thai-id-reader %s\n", Version)
		return
	}

	logger := newLogger(os.Stderr, cfg.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scardCtx, err := scard.EstablishContext()
	if err != nil {
		log.Fatalf("Error establishing context: %s", err)
	}
	defer func() {
		if err := scardCtx.Release(); err != nil {
			log.Printf("Warning: Failed to release context: %v", err)
		}
	}()

	switch cfg.Command {
	case "check":
		if err := check(os.Stdout, scardCtx, cfg.Reader); err != nil {
			log.Fatalf("Error: %v", err)
		}
	default:
		if err := monitor(ctx, scardCtx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("Error: %v", err)
		}
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// check lists the readers visible to the PC/SC service.
func check(w io.Writer, src pcsc.StatusSource, filter string) error {
	readers, err := pcsc.ListReaders(src, filter)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "--- ผลการตรวจสอบ ---")
	if len(readers) == 0 {
		fmt.Fprintln(w, "❌ ระบบยังมองไม่เห็นเครื่องอ่าน")
		fmt.Fprintln(w, "คำแนะนำ: ตรวจสอบสาย USB หรือลองใช้ USB Hub ที่มีไฟเลี้ยง (Powered Hub)")
		return nil
	}
	for _, r := range readers {
		fmt.Fprintf(w, "✅ พบเครื่องอ่าน: %s\n", r)
	}
	return nil
}

// monitor reads every inserted card until ctx ends.
func monitor(ctx context.Context, scardCtx *scard.Context, cfg *Config, logger *slog.Logger) error {
	// Unblock a pending GetStatusChange on shutdown.
	go func() {
		<-ctx.Done()
		_ = scardCtx.Cancel()
	}()

	reporter := &consoleReporter{out: os.Stdout, format: cfg.Format}
	handler := session.NewCardHandler(
		pcsc.NewConnector(scardCtx, cfg.WarmReset, logger),
		reporter,
		session.WithPace(cfg.Pace),
		session.WithLogger(logger),
	)

	mon := pcsc.NewMonitor(scardCtx,
		pcsc.WithPoll(cfg.Poll),
		pcsc.WithReaderFilter(cfg.Reader),
		pcsc.WithMonitorLogger(logger),
	)

	events := make(chan session.Event)
	go func() {
		if err := mon.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("monitor stopped", "err", err)
		}
	}()

	logger.Info("waiting for cards", "reader", cfg.Reader, "pace", cfg.Pace)
	return session.NewDriver(handler, logger).Run(ctx, events)
}
