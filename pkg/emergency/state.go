package emergency

import "time"

// State is the durably persisted emergency-latch record. A missing record
// means the latch was never touched and is implicitly inactive.
type State struct {
	Active        bool      `json:"active"`
	ActivatedAt   time.Time `json:"activated_at,omitzero"`
	DeactivatedAt time.Time `json:"deactivated_at,omitzero"`
	Reason        string    `json:"reason,omitempty"`
	ActivatedBy   string    `json:"activated_by,omitempty"`
	DeactivatedBy string    `json:"deactivated_by,omitempty"`
}
