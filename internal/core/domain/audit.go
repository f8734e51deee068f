package domain

import "time"

// TransitionRecord is one audit entry: a session state change, a band
// switch or an action frame exchange observed during a run.
type TransitionRecord struct {
	RunID   string        `json:"run_id"`
	SimTime time.Duration `json:"sim_time"`
	Device  MacAddr       `json:"device"`
	Peer    MacAddr       `json:"peer"`
	Event   string        `json:"event"` // e.g. "setup_request_rx", "band_switch", "state_change"
	State   string        `json:"state,omitempty"`
	Band    string        `json:"band,omitempty"`
	Detail  string        `json:"detail,omitempty"`
}
