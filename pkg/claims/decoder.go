package claims

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// JWT header constants required by RFC 7519.
const (
	headerType      = "JWT"
	headerAlgorithm = "HS256"
)

// DefaultLeeway is the clock-skew allowance applied to temporal claims.
const DefaultLeeway = 60 * time.Second

type header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// Decoder validates signed identity tokens against a configured trust anchor
// and extracts their claims. It performs pure validation: no logging, no
// side effects, and never downgrades a failed validation to anonymous.
type Decoder struct {
	signingKey []byte
	audience   string
	leeway     time.Duration
	now        func() time.Time
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithAudience sets the expected audience. Tokens whose aud claim does not
// match are rejected. A trailing "*" matches any suffix, e.g. "sallyport:*".
func WithAudience(aud string) Option {
	return func(d *Decoder) { d.audience = aud }
}

// WithLeeway overrides the clock-skew allowance for exp/nbf/iat checks.
func WithLeeway(leeway time.Duration) Option {
	return func(d *Decoder) {
		if leeway >= 0 {
			d.leeway = leeway
		}
	}
}

// NewDecoder creates a Decoder using the provided HMAC-SHA256 signing key.
// The key should be at least 32 bytes.
func NewDecoder(signingKey []byte, opts ...Option) (*Decoder, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}

	d := &Decoder{
		signingKey: signingKey,
		leeway:     DefaultLeeway,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Decode verifies the token signature, algorithm, temporal bounds, and
// audience, and returns the extracted claims. Any validation failure is
// fatal for the request.
func (d *Decoder) Decode(tokenString string) (Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return Claims{}, ErrMalformedToken
	}

	// Verify the signature before touching any payload bytes.
	// Constant-time comparison prevents timing attacks.
	payload := parts[0] + "." + parts[1]
	expected := d.sign(payload)
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(expected)) != 1 {
		return Claims{}, ErrInvalidSignature
	}

	headerJSON, err := base64URLDecode(parts[0])
	if err != nil {
		return Claims{}, errors.Join(ErrMalformedToken, err)
	}

	var h header
	if err := json.Unmarshal(headerJSON, &h); err != nil {
		return Claims{}, errors.Join(ErrMalformedToken, err)
	}

	// Reject tokens using unexpected algorithms to prevent algorithm
	// confusion attacks.
	if h.Algorithm != headerAlgorithm {
		return Claims{}, ErrUnexpectedSigningMethod
	}

	claimsJSON, err := base64URLDecode(parts[1])
	if err != nil {
		return Claims{}, errors.Join(ErrMalformedToken, err)
	}

	var c Claims
	if err := json.Unmarshal(claimsJSON, &c); err != nil {
		return Claims{}, errors.Join(ErrMalformedToken, err)
	}

	if err := c.validateTime(d.now(), d.leeway); err != nil {
		return Claims{}, err
	}

	if d.audience != "" && !audienceMatches(c.Audience, d.audience) {
		return Claims{}, ErrAudienceMismatch
	}

	return c, nil
}

// Generate creates a signed token for the given claims. Retained for token
// minting services and tests; the gateway itself only decodes.
func (d *Decoder) Generate(c Claims) (string, error) {
	headerJSON, err := json.Marshal(header{Type: headerType, Algorithm: headerAlgorithm})
	if err != nil {
		return "", err
	}

	claimsJSON, err := json.Marshal(c)
	if err != nil {
		return "", err
	}

	payload := base64URLEncode(headerJSON) + "." + base64URLEncode(claimsJSON)
	return payload + "." + d.sign(payload), nil
}

func audienceMatches(aud, pattern string) bool {
	if aud == pattern {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(aud, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

func (d *Decoder) sign(payload string) string {
	h := hmac.New(sha256.New, d.signingKey)
	h.Write([]byte(payload))
	return base64URLEncode(h.Sum(nil))
}

// base64URLEncode encodes data using base64url without padding per RFC 7515.
func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
