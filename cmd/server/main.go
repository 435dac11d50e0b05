package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matst80/wsbridge/internal/bridge"
	"github.com/matst80/wsbridge/internal/obs"
	"github.com/matst80/wsbridge/internal/ratelimit"
	"github.com/matst80/wsbridge/internal/state"
	"github.com/matst80/wsbridge/internal/target"
)

const (
	shutdownTimeout   = 10 * time.Second
	limiterSweep      = time.Minute
	limiterMaxIdle    = 10 * time.Minute
	readHeaderTimeout = 10 * time.Second
)

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cfg.Debug {
		obs.EnableDebug(true)
	}

	reg, dups, err := target.ParseAll(cfg.Targets)
	if err != nil {
		obs.Error("config.target", obs.Fields{"err": err.Error()})
		os.Exit(1)
	}
	for _, name := range dups {
		obs.Warn("config.target.duplicate", obs.Fields{"name": name})
	}
	if reg.IsEmpty() {
		obs.Warn("config.targets.empty", obs.Fields{"hint": "every connection will be rejected"})
	} else {
		printTargets(os.Stdout, reg, cfg.Prefix)
	}

	store, err := state.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		obs.Error("state.init", obs.Fields{"err": err.Error()})
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		obs.Error("listen.bridge", obs.Fields{"err": err.Error(), "addr": addr})
		os.Exit(1)
	}

	var limiter *ratelimit.RateLimiter
	limits := ratelimit.Limits{GlobalConnRate: cfg.ConnRate, PeerConnRate: cfg.PeerConnRate, DialRate: cfg.DialRate, Burst: cfg.Burst}
	if rl := ratelimit.NewRateLimiter(limits); rl.Enabled() {
		limiter = rl
	}

	br := bridge.New(bridge.Config{
		Registry:   reg,
		Prefix:     cfg.Prefix,
		Store:      store,
		Limiter:    limiter,
		TrustProxy: cfg.TrustProxy,
	})
	srv := &http.Server{Handler: newBridgeMux(br, cfg.StaticDir), ReadHeaderTimeout: readHeaderTimeout}
	servers := []*http.Server{srv}

	var mln net.Listener
	if cfg.MetricsAddr != "" {
		mln, err = net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			obs.Error("listen.metrics", obs.Fields{"err": err.Error(), "addr": cfg.MetricsAddr})
			os.Exit(1)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serve(srv, ln) })
	if mln != nil {
		msrv := &http.Server{Handler: newStatusMux(store, reg), ReadHeaderTimeout: readHeaderTimeout}
		servers = append(servers, msrv)
		g.Go(func() error { return serve(msrv, mln) })
	}
	if limiter != nil {
		g.Go(func() error { runLimiterCleanup(gctx, limiter); return nil })
	}
	g.Go(func() error {
		<-gctx.Done()
		obs.Info("server.shutdown.signal", obs.Fields{})
		store.SetClosing(true)
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, s := range servers {
			if err := s.Shutdown(sctx); err != nil {
				obs.Error("server.shutdown", obs.Fields{"err": err.Error()})
			}
		}
		return nil
	})

	store.SetReady(true)
	obs.Info("server.ready", obs.Fields{"addr": ln.Addr().String(), "prefix": cfg.Prefix, "targets": reg.Len(), "metrics": cfg.MetricsAddr})

	if err := g.Wait(); err != nil {
		obs.Error("server.exit", obs.Fields{"err": err.Error()})
		os.Exit(1)
	}
	obs.Info("server.shutdown.complete", obs.Fields{})
}

// serve runs s on ln until Shutdown.
func serve(s *http.Server, ln net.Listener) error {
	if err := s.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newBridgeMux routes the prefix to the bridge. Other paths get the static
// assets in dir, or the bridge's own routing rejection when there are none.
func newBridgeMux(br *bridge.Bridge, dir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(br.Prefix(), br)
	switch {
	case br.Prefix() == "/":
	case dir != "":
		mux.Handle("/", http.FileServer(http.Dir(dir)))
	default:
		mux.Handle("/", br)
	}
	return mux
}

func runLimiterCleanup(ctx context.Context, rl *ratelimit.RateLimiter) {
	t := time.NewTicker(limiterSweep)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := rl.CleanupIdle(limiterMaxIdle); n > 0 {
				obs.Debug("ratelimit.cleanup", obs.Fields{"removed": n})
			}
		}
	}
}
