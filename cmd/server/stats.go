package main

import (
	"time"

	"github.com/matst80/wsbridge/internal/proto"
	"github.com/matst80/wsbridge/internal/state"
	"github.com/matst80/wsbridge/internal/target"
)

type status proto.State

func collectState(store state.Store, reg *target.Registry) status {
	st := store.Stats()
	sessions := store.Sessions()
	if sessions == nil {
		sessions = []proto.Session{}
	}
	return status{
		Active:   st.Active,
		Total:    st.Total,
		Targets:  reg.Len(),
		Sessions: sessions,
		Now:      time.Now().UTC().Format(time.RFC3339),
	}
}

func targetList(reg *target.Registry) []proto.Target {
	out := make([]proto.Target, 0, reg.Len())
	for _, d := range reg.List() {
		out = append(out, proto.Target{Name: d.Name, Mode: d.Mode.String(), Address: d.Address})
	}
	return out
}

// templateMap returns the fields the dashboard template expects.
func (s status) templateMap(reg *target.Registry) map[string]any {
	return map[string]any{
		"Active":   s.Active,
		"Total":    s.Total,
		"Targets":  targetList(reg),
		"Sessions": s.Sessions,
	}
}
