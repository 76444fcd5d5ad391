package claims

import "time"

// Claims carries the identity assertions extracted from a verified token.
// Temporal fields use Unix timestamps for consistent validation.
type Claims struct {
	Subject   string   `json:"sub,omitempty"`
	Email     string   `json:"email,omitempty"`
	Issuer    string   `json:"iss,omitempty"`
	Audience  string   `json:"aud,omitempty"`
	ExpiresAt int64    `json:"exp,omitempty"`
	NotBefore int64    `json:"nbf,omitempty"`
	IssuedAt  int64    `json:"iat,omitempty"`
	UserType  string   `json:"user_type,omitempty"`
	AgentID   string   `json:"agent_id,omitempty"`
	AgentType string   `json:"agent_type,omitempty"`
	Roles     []string `json:"roles,omitempty"`
}

// IsAgent reports whether the token asserts an autonomous-agent identity.
// A bare agent_type without agent_id is not enough; downstream mapping
// fails closed on such tokens.
func (c Claims) IsAgent() bool {
	return c.AgentType != ""
}

// validateTime checks exp/nbf/iat bounds against now with the given leeway.
// Zero values are treated as unset per RFC 7519 and skipped.
func (c Claims) validateTime(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt > 0 && now.Add(-leeway).Unix() > c.ExpiresAt {
		return ErrExpiredToken
	}
	if c.NotBefore > 0 && now.Add(leeway).Unix() < c.NotBefore {
		return ErrTokenNotYetValid
	}
	if c.IssuedAt > 0 && now.Add(leeway).Unix() < c.IssuedAt {
		return ErrTokenNotYetValid
	}
	return nil
}
