package simulate

import (
	"flag"
	"io"
	"os"
)

// ParseFlags reads a Config from args. It returns flag.ErrHelp when usage
// was requested.
func ParseFlags(args []string, out io.Writer) (*Config, error) {
	cfg := &Config{}
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&cfg.BaseURL, "url", DefaultBaseURL, "Base URL of the server")
	fs.IntVar(&cfg.Rounds, "rounds", DefaultRounds, "Times every scenario is replayed")
	fs.DurationVar(&cfg.Timeout, "timeout", DefaultTimeout, "HTTP request timeout")
	fs.StringVar(&cfg.OutputFile, "output", "", "Write generated frames as JSON lines to this file")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Log every verified scenario")
	fs.Usage = func() { ShowHelp(out) }
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.Rounds < 1 {
		cfg.Rounds = 1
	}
	return cfg, nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp(out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	_, _ = io.WriteString(out, `ergowatch posture simulator
===========================

Posts synthetic postures to a running server and checks that
GET /api/posture reflects each one.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string
        Base URL of the server (default "http://localhost:8080")
  -rounds int
        Times every scenario is replayed (default 3)
  -timeout duration
        HTTP request timeout (default 5s)
  -output string
        Write generated frames as JSON lines to this file
  -verbose
        Log every verified scenario

Examples:
  go run ./cmd/simulate -rounds 10 -verbose
  go run ./cmd/simulate -output frames.jsonl
`)
}
