package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/gregLibert/thai-id-reader/pkg/iso7816"
	"github.com/gregLibert/thai-id-reader/pkg/pcsc"
)

// Config holds the command line settings.
type Config struct {
	Command   string
	Reader    string
	Pace      time.Duration
	Poll      time.Duration
	Format    string
	WarmReset bool
	Verbose   bool
}

const (
	formatText = "text"
	formatYAML = "yaml"
)

// parseConfig reads flags from args. Environment variables provide the
// defaults that flags override.
func parseConfig(args []string, getenv func(string) string, output io.Writer) (*Config, error) {
	cfg := &Config{
		Command:   "monitor",
		Reader:    getenv("THAIID_READER"),
		Pace:      iso7816.DefaultInterval,
		Poll:      pcsc.DefaultPoll,
		Format:    formatText,
		WarmReset: true,
	}

	if v := getenv("THAIID_PACE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("THAIID_PACE: %w", err)
		}
		cfg.Pace = d
	}
	if v := getenv("THAIID_FORMAT"); v != "" {
		cfg.Format = v
	}

	fs := flag.NewFlagSet("thai-id-reader", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.Reader, "reader", cfg.Reader, "Only use readers whose name contains this text")
	fs.DurationVar(&cfg.Pace, "pace", cfg.Pace, "Minimum interval between two commands (0 disables)")
	fs.DurationVar(&cfg.Poll, "poll", cfg.Poll, "Timeout of a reader status poll")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "Output format: text or yaml")
	fs.BoolVar(&cfg.WarmReset, "warm-reset", cfg.WarmReset, "Reset the card after connecting")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Log every APDU exchange")

	fs.Usage = func() {
		fmt.Fprintf(output, "Thai ID Reader - Thai national ID card reader\n\n")
		fmt.Fprintf(output, "Usage:\n")
		fmt.Fprintf(output, "  thai-id-reader [flags] [command]\n\n")
		fmt.Fprintf(output, "Commands:\n")
		fmt.Fprintf(output, "  monitor     Read every inserted card (default)\n")
		fmt.Fprintf(output, "  check       List the connected readers\n")
		fmt.Fprintf(output, "  version     Print version information\n\n")
		fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(output, "\nEnvironment variables:\n")
		fmt.Fprintf(output, "  THAIID_READER    Default for -reader\n")
		fmt.Fprintf(output, "  THAIID_PACE      Default for -pace (e.g. 400ms)\n")
		fmt.Fprintf(output, "  THAIID_FORMAT    Default for -format\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if rest := fs.Args(); len(rest) > 0 {
		cfg.Command = rest[0]
	}

	switch cfg.Command {
	case "monitor", "check", "version":
	default:
		fs.Usage()
		return nil, fmt.Errorf("unknown command: %s", cfg.Command)
	}

	if cfg.Format != formatText && cfg.Format != formatYAML {
		return nil, fmt.Errorf("unknown format %q", cfg.Format)
	}
	if cfg.Pace < 0 || cfg.Poll <= 0 {
		return nil, fmt.Errorf("pace must be >= 0 and poll > 0")
	}

	return cfg, nil
}
