package main

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matst80/wsbridge/internal/obs"
	"github.com/matst80/wsbridge/internal/state"
	"github.com/matst80/wsbridge/internal/target"
	"github.com/matst80/wsbridge/internal/web"
)

// newStatusMux serves Prometheus metrics, health probes and the session
// dashboard. It runs on its own listener, away from the bridge port.
func newStatusMux(store state.Store, reg *target.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if store.IsClosing() || !store.IsReady() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, collectState(store, reg))
	})
	mux.HandleFunc("/api/targets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, targetList(reg))
	})
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		st := collectState(store, reg)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := web.Render(w, "dashboard", st.templateMap(reg)); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("dashboard unavailable"))
		}
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obs.Error("status.encode", obs.Fields{"err": err.Error()})
	}
}
