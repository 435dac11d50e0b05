package proto

import "time"

// Target describes one configured backend on /api/targets.
type Target struct {
	Name    string `json:"name"`
	Mode    string `json:"mode"`
	Address string `json:"address"`
}

// Session is one live relay. Instance is set by shared stores so several
// bridges can report into one list.
type Session struct {
	ID       string    `json:"id"`
	Target   string    `json:"target"`
	Mode     string    `json:"mode"`
	Peer     string    `json:"peer"`
	Started  time.Time `json:"started"`
	Instance string    `json:"instance,omitempty"`
}

// State is the /api/state document.
type State struct {
	Active   int       `json:"active"`
	Total    int64     `json:"total_sessions"`
	Targets  int       `json:"targets"`
	Sessions []Session `json:"sessions"`
	Now      string    `json:"now"`
}
