package audit

import (
	"fmt"
	"time"
)

// Outcome is the terminal result of a gateway decision.
type Outcome string

const (
	OutcomeAllow Outcome = "allow"
	OutcomeDeny  Outcome = "deny"
)

// Event is one immutable gateway decision record. Every admitted and
// every rejected request produces exactly one Event.
type Event struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	PrincipalID string    `json:"principal_id"`
	AgentID     string    `json:"agent_id,omitempty"`
	Tier        string    `json:"tier,omitempty"`
	Resource    string    `json:"resource"`
	Action      string    `json:"action"`
	Outcome     Outcome   `json:"outcome"`
	Rule        string    `json:"rule,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Region      string    `json:"region,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	IP          string    `json:"ip,omitempty"`
}

// Validate checks the fields no decision record may omit.
func (e *Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrInvalidEvent)
	}
	if e.Outcome != OutcomeAllow && e.Outcome != OutcomeDeny {
		return fmt.Errorf("%w: outcome must be allow or deny", ErrInvalidEvent)
	}
	return nil
}
