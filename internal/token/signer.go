package token

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// Signer signs and verifies JWTs with RS256 and publishes the matching
// JWK set. The key material is fixed at construction; Sign and Verify do
// no I/O and are safe for concurrent use.
type Signer struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	keyID      string
	skew       time.Duration
	jwksJSON   []byte
}

// NewSigner parses the PEM key pair and precomputes the JWK set document.
func NewSigner(privateKeyPEM, publicKeyPEM, issuer, keyID string, skew time.Duration) (*Signer, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	jwksJSON, err := buildJWKS(publicKey, keyID)
	if err != nil {
		return nil, fmt.Errorf("build JWK set: %w", err)
	}

	return &Signer{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		keyID:      keyID,
		skew:       skew,
		jwksJSON:   jwksJSON,
	}, nil
}

func buildJWKS(publicKey *rsa.PublicKey, keyID string) ([]byte, error) {
	key, err := jwk.Import(publicKey)
	if err != nil {
		return nil, err
	}
	if err := key.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, err
	}
	if err := key.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		return nil, err
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.RS256()); err != nil {
		return nil, err
	}

	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		return nil, err
	}
	return json.Marshal(set)
}

// Sign issues a compact JWT. sub and aud are required; ttl must be
// positive so exp is always after iat. The jti is a fresh UUID.
func (s *Signer) Sign(sub, clientID, scope, tokenType string, ttl time.Duration) (string, *Claims, error) {
	if sub == "" || clientID == "" || ttl <= 0 {
		return "", nil, ErrMissingClaims
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   sub,
			Audience:  jwt.ClaimStrings{clientID},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		Scope:     scope,
		TokenType: tokenType,
		ClientID:  clientID,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	t.Header["kid"] = s.keyID

	signed, err := t.SignedString(s.privateKey)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return signed, claims, nil
}

// Verify parses a compact JWT and checks signature, expiry (with the
// configured skew), and issuer. When audience is non-empty the aud claim
// must match it as well.
func (s *Signer) Verify(tokenString, audience string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithLeeway(s.skew),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc, opts...)
	if err != nil {
		return nil, mapParseError(err)
	}
	if !t.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseSkipExpiry verifies signature and issuer but ignores exp, so an
// already-expired token can still be identified for revocation.
func (s *Signer) ParseSkipExpiry(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := &Claims{}
	t, err := parser.ParseWithClaims(tokenString, claims, s.keyFunc)
	if err != nil {
		return nil, mapParseError(err)
	}
	if !t.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != s.issuer {
		return nil, ErrWrongIssuer
	}
	return claims, nil
}

func (s *Signer) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return s.publicKey, nil
}

// JWKS returns the precomputed JWK set document for the public key.
func (s *Signer) JWKS() []byte {
	return s.jwksJSON
}

// KeyID returns the stable kid placed in every token header.
func (s *Signer) KeyID() string {
	return s.keyID
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrWrongIssuer
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrWrongAudience
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformedToken
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}
