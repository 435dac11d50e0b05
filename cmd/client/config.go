package main

import (
	"flag"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds client runtime configuration.
type Config struct {
	URL         string // bridge base URL, ws:// or wss://
	Target      string
	Prefix      string
	StatusURL   string // status listener, used by -list
	List        bool
	DialTimeout time.Duration
}

func parseConfig(args []string) (*Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("wsbridge-client", flag.ContinueOnError)
	fs.StringVar(&cfg.URL, "url", "ws://127.0.0.1:8080", "bridge base URL")
	fs.StringVar(&cfg.Target, "target", "", "target name to open")
	fs.StringVar(&cfg.Prefix, "prefix", "/ws/", "bridge path prefix")
	fs.StringVar(&cfg.StatusURL, "status", "http://127.0.0.1:9100", "bridge status URL for -list")
	fs.BoolVar(&cfg.List, "list", false, "list the bridge's targets and exit")
	fs.DurationVar(&cfg.DialTimeout, "dial-timeout", 10*time.Second, "handshake timeout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	// A bare positional argument names the target.
	if cfg.Target == "" && fs.NArg() == 1 {
		cfg.Target = fs.Arg(0)
	} else if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if !cfg.List && cfg.Target == "" {
		return nil, fmt.Errorf("a target name is required")
	}
	return &cfg, nil
}

// sessionURL joins the base URL, prefix and target name.
func (c *Config) sessionURL() (string, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	prefix := "/" + strings.Trim(c.Prefix, "/") + "/"
	if prefix == "//" {
		prefix = "/"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + prefix + c.Target
	return u.String(), nil
}
