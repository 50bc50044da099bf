package token

import "errors"

var (
	// ErrTokenGeneration indicates token signing failed
	ErrTokenGeneration = errors.New("failed to generate token")

	// ErrMissingClaims indicates a signing request without sub, aud, or ttl
	ErrMissingClaims = errors.New("missing required claims")

	// ErrMalformedToken indicates the compact serialization could not be parsed
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidSignature indicates the signature did not verify
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("token expired")

	// ErrWrongIssuer indicates the iss claim does not match this server
	ErrWrongIssuer = errors.New("wrong token issuer")

	// ErrWrongAudience indicates the aud claim does not match the expected client
	ErrWrongAudience = errors.New("wrong token audience")

	// ErrInvalidToken covers any other verification failure
	ErrInvalidToken = errors.New("invalid token")
)
