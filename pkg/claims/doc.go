// Package claims validates signed identity tokens and extracts their raw
// claims. It has no knowledge of authorization policy: mapping claims to a
// principal and deciding what that principal may do happens downstream in
// the principal and policy packages.
//
// Tokens are HMAC-SHA256 JWTs. Validation covers the signature, the signing
// algorithm, exp/nbf/iat bounds with a configurable clock-skew allowance,
// and the expected audience. Every failure is fatal for the request; the
// decoder never silently downgrades a bad token to an anonymous identity.
//
//	decoder, err := claims.NewDecoder(signingKey,
//	    claims.WithAudience("sallyport:gateway"),
//	)
//	c, err := decoder.Decode(bearerToken)
package claims
