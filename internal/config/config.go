package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WorkloadSpec describes one workload entry in a benchmark suite.
// Zero fields inherit the run-level defaults.
type WorkloadSpec struct {
	Kind       string `yaml:"kind"`
	Workers    int    `yaml:"workers,omitempty"`
	Ops        int    `yaml:"ops,omitempty"`
	ChunkBytes int    `yaml:"chunk_bytes,omitempty"`
}

// RunConfig holds configuration for the run subcommand.
type RunConfig struct {
	Workloads  []WorkloadSpec
	Workers    int    // default workers per workload
	Ops        int    // default ops per worker
	ChunkBytes int    // default payload size per op
	TCPAddr    string // TCP sink address
	QUICAddr   string // QUIC sink address
	WSURL      string // WebSocket sink URL
	ReportPath string // where to persist the run report ("" = skip)
	LogLevel   string
}

// SinkConfig holds configuration for the sink subcommand.
type SinkConfig struct {
	TCPAddr  string
	QUICAddr string
	WSAddr   string
	LogLevel string
}

// ParseRunConfig parses run configuration from flags and environment
// variables. Flags take precedence over environment variables.
func ParseRunConfig(args []string) (RunConfig, error) {
	return parseRunConfigWithFlagSet(flag.NewFlagSet("run", flag.ExitOnError), args)
}

func parseRunConfigWithFlagSet(fs *flag.FlagSet, args []string) (RunConfig, error) {
	cfg := RunConfig{
		Workers:    4,
		Ops:        1000,
		ChunkBytes: 64 * 1024,
		TCPAddr:    "127.0.0.1:9800",
		QUICAddr:   "127.0.0.1:9801",
		WSURL:      "ws://127.0.0.1:9802/ingest",
		LogLevel:   "info",
	}

	// Read from environment first
	if v := os.Getenv("THRUBENCH_TCP_ADDR"); v != "" {
		cfg.TCPAddr = v
	}
	if v := os.Getenv("THRUBENCH_QUIC_ADDR"); v != "" {
		cfg.QUICAddr = v
	}
	if v := os.Getenv("THRUBENCH_WS_URL"); v != "" {
		cfg.WSURL = v
	}
	if v := os.Getenv("THRUBENCH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	var suitePath string
	var kinds stringSlice

	// Flags override environment
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent workers per workload")
	fs.IntVar(&cfg.Ops, "ops", cfg.Ops, "operations per worker")
	fs.IntVar(&cfg.ChunkBytes, "chunk", cfg.ChunkBytes, "payload bytes per operation")
	fs.StringVar(&cfg.TCPAddr, "tcp-addr", cfg.TCPAddr, "TCP sink address")
	fs.StringVar(&cfg.QUICAddr, "quic-addr", cfg.QUICAddr, "QUIC sink address")
	fs.StringVar(&cfg.WSURL, "ws-url", cfg.WSURL, "WebSocket sink URL")
	fs.StringVar(&cfg.ReportPath, "report", cfg.ReportPath, "write the run report to this file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&suitePath, "suite", "", "YAML suite file listing workloads")
	fs.Var(&kinds, "workload", "workload kind to run (repeatable: memcopy, tcp, quic, ws)")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Ops < 1 {
		cfg.Ops = 1
	}
	if cfg.ChunkBytes < 1 {
		return cfg, fmt.Errorf("chunk size must be positive, got %d", cfg.ChunkBytes)
	}

	if suitePath != "" {
		specs, err := LoadSuite(suitePath)
		if err != nil {
			return cfg, err
		}
		cfg.Workloads = specs
	}
	for _, kind := range kinds {
		cfg.Workloads = append(cfg.Workloads, WorkloadSpec{Kind: kind})
	}
	if len(cfg.Workloads) == 0 {
		cfg.Workloads = []WorkloadSpec{{Kind: "memcopy"}}
	}

	// Fill per-workload defaults from the run-level settings.
	for i := range cfg.Workloads {
		if cfg.Workloads[i].Workers <= 0 {
			cfg.Workloads[i].Workers = cfg.Workers
		}
		if cfg.Workloads[i].Ops <= 0 {
			cfg.Workloads[i].Ops = cfg.Ops
		}
		if cfg.Workloads[i].ChunkBytes <= 0 {
			cfg.Workloads[i].ChunkBytes = cfg.ChunkBytes
		}
		if cfg.Workloads[i].Kind == "" {
			return cfg, fmt.Errorf("workload %d has no kind", i)
		}
	}

	return cfg, nil
}

// ParseSinkConfig parses sink configuration from flags and environment
// variables. Flags take precedence over environment variables.
func ParseSinkConfig(args []string) (SinkConfig, error) {
	return parseSinkConfigWithFlagSet(flag.NewFlagSet("sink", flag.ExitOnError), args)
}

func parseSinkConfigWithFlagSet(fs *flag.FlagSet, args []string) (SinkConfig, error) {
	cfg := SinkConfig{
		TCPAddr:  "127.0.0.1:9800",
		QUICAddr: "127.0.0.1:9801",
		WSAddr:   "127.0.0.1:9802",
		LogLevel: "info",
	}

	if v := os.Getenv("THRUBENCH_TCP_ADDR"); v != "" {
		cfg.TCPAddr = v
	}
	if v := os.Getenv("THRUBENCH_QUIC_ADDR"); v != "" {
		cfg.QUICAddr = v
	}
	if v := os.Getenv("THRUBENCH_WS_ADDR"); v != "" {
		cfg.WSAddr = v
	}
	if v := os.Getenv("THRUBENCH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	fs.StringVar(&cfg.TCPAddr, "tcp-addr", cfg.TCPAddr, "TCP listen address")
	fs.StringVar(&cfg.QUICAddr, "quic-addr", cfg.QUICAddr, "QUIC listen address")
	fs.StringVar(&cfg.WSAddr, "ws-addr", cfg.WSAddr, "WebSocket listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	return cfg, nil
}

type suiteFile struct {
	Workloads []WorkloadSpec `yaml:"workloads"`
}

// LoadSuite reads a YAML suite file listing workload specs.
func LoadSuite(path string) ([]WorkloadSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite: %w", err)
	}
	var suite suiteFile
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parse suite %s: %w", path, err)
	}
	if len(suite.Workloads) == 0 {
		return nil, fmt.Errorf("suite %s lists no workloads", path)
	}
	return suite.Workloads, nil
}

// stringSlice implements flag.Value for repeatable string flags.
type stringSlice []string

func (s *stringSlice) String() string {
	if s == nil {
		return ""
	}
	out := ""
	for i, v := range *s {
		if i > 0 {
			out += ","
		}
		out += v
	}
	return out
}

func (s *stringSlice) Set(value string) error {
	*s = append(*s, value)
	return nil
}

var _ flag.Value = (*stringSlice)(nil)
