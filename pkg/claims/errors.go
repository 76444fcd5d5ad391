package claims

import "errors"

var (
	ErrMalformedToken          = errors.New("claims: malformed token")
	ErrInvalidSignature        = errors.New("claims: invalid signature")
	ErrExpiredToken            = errors.New("claims: token is expired")
	ErrTokenNotYetValid        = errors.New("claims: token is not yet valid")
	ErrAudienceMismatch        = errors.New("claims: audience mismatch")
	ErrUnexpectedSigningMethod = errors.New("claims: unexpected signing method")
	ErrMissingSigningKey       = errors.New("claims: missing signing key")
)
