package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/matst80/wsbridge/internal/bridge"
)

const envPrefix = "WSBRIDGE_"

// Config holds all runtime configuration. Environment variables (and a .env
// file) supply defaults; flags given on the command line win.
type Config struct {
	Port          int      `env:"PORT" envDefault:"8080"`
	Targets       []string `env:"TARGETS" envSeparator:","`
	Prefix        string   `env:"PREFIX" envDefault:"/ws/"`
	StaticDir     string   `env:"STATIC_DIR"`
	MetricsAddr   string   `env:"METRICS_ADDR" envDefault:":9100"`
	RedisAddr     string   `env:"REDIS_ADDR"`
	RedisPassword string   `env:"REDIS_PASSWORD"`
	RedisDB       int      `env:"REDIS_DB"`
	ConnRate      int      `env:"CONN_RATE"`
	PeerConnRate  int      `env:"PEER_CONN_RATE"`
	DialRate      int      `env:"DIAL_RATE"`
	Burst         int      `env:"BURST" envDefault:"10"`
	TrustProxy    bool     `env:"TRUST_PROXY"`
	Debug         bool     `env:"DEBUG"`
}

// targetFlags collects repeated -target flags. The first flag replaces any
// list taken from the environment.
type targetFlags struct {
	dst *[]string
	set bool
}

func (t *targetFlags) String() string {
	if t.dst == nil {
		return ""
	}
	return strings.Join(*t.dst, ",")
}

func (t *targetFlags) Set(v string) error {
	if !t.set {
		*t.dst = nil
		t.set = true
	}
	*t.dst = append(*t.dst, v)
	return nil
}

func parseConfig(args []string) (*Config, error) {
	// A missing .env file is the normal case.
	_ = godotenv.Load()

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	fs := flag.NewFlagSet("wsbridge", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "WebSocket listen port")
	fs.IntVar(&cfg.Port, "p", cfg.Port, "shorthand for -port")
	targets := &targetFlags{dst: &cfg.Targets}
	fs.Var(targets, "target", "target NAME:MODE:HOST:PORT, MODE is raw or telnet (repeatable)")
	fs.Var(targets, "t", "shorthand for -target")
	fs.StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "path prefix before the target name")
	fs.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "directory of front-end assets served at /")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "metrics, health and status listen address (empty disables)")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for the shared session store (empty keeps it in memory)")
	fs.StringVar(&cfg.RedisPassword, "redis-password", cfg.RedisPassword, "Redis password")
	fs.IntVar(&cfg.RedisDB, "redis-db", cfg.RedisDB, "Redis database")
	fs.IntVar(&cfg.ConnRate, "conn-rate", cfg.ConnRate, "front-end connections per second, all peers (0 disables)")
	fs.IntVar(&cfg.PeerConnRate, "peer-conn-rate", cfg.PeerConnRate, "front-end connections per second per peer (0 disables)")
	fs.IntVar(&cfg.DialRate, "dial-rate", cfg.DialRate, "backend dials per second per target (0 disables)")
	fs.IntVar(&cfg.Burst, "burst", cfg.Burst, "burst size for the rate limits")
	fs.BoolVar(&cfg.TrustProxy, "trust-proxy", cfg.TrustProxy, "identify peers by X-Forwarded-For")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logs")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if cfg.Prefix == "" {
		cfg.Prefix = bridge.DefaultPrefix
	}
	if !strings.HasPrefix(cfg.Prefix, "/") || !strings.HasSuffix(cfg.Prefix, "/") {
		return nil, fmt.Errorf("prefix %q must start and end with /", cfg.Prefix)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d out of range", cfg.Port)
	}
	return &cfg, nil
}
