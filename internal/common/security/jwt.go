package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Claims is the identity carried by both token kinds.
type Claims struct {
	UserID string
	Email  string
	Role   string
	Kind   TokenKind
}

// TokenIssuer signs access and refresh tokens with separate secrets, so a leaked
// refresh secret cannot mint access tokens and the other way round.
type TokenIssuer struct {
	access     *jwtauth.JWTAuth
	refresh    *jwtauth.JWTAuth
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenIssuer(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		access:     jwtauth.New("HS256", accessSecret, nil),
		refresh:    jwtauth.New("HS256", refreshSecret, nil),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Auth returns the verifier for kind, for use with jwtauth.Verifier.
func (i *TokenIssuer) Auth(kind TokenKind) *jwtauth.JWTAuth {
	if kind == RefreshToken {
		return i.refresh
	}
	return i.access
}

func (i *TokenIssuer) IssuePair(userID, email, role string) (*TokenPair, error) {
	access, err := i.encode(AccessToken, i.accessTTL, userID, email, role)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := i.encode(RefreshToken, i.refreshTTL, userID, email, role)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *TokenIssuer) encode(kind TokenKind, ttl time.Duration, userID, email, role string) (string, error) {
	claims := map[string]interface{}{
		"sub":   userID,
		"email": email,
		"role":  role,
		"typ":   string(kind),
		// jti keeps two tokens minted in the same second distinct.
		"jti": uuid.NewString(),
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, ttl)
	_, tokenString, err := i.Auth(kind).Encode(claims)
	return tokenString, err
}

// Verify checks signature, expiry and kind of a raw token string.
func (i *TokenIssuer) Verify(kind TokenKind, tokenString string) (*Claims, error) {
	token, err := jwtauth.VerifyToken(i.Auth(kind), tokenString)
	if err != nil {
		return nil, err
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		return nil, err
	}
	return ClaimsFromMap(claims, kind)
}

// ClaimsFromMap extracts the identity from decoded claims and checks the token kind.
func ClaimsFromMap(claims jwt.MapClaims, kind TokenKind) (*Claims, error) {
	userID, err := GetUserIDFromClaims(claims)
	if err != nil {
		return nil, err
	}
	role, err := GetUserRoleFromClaims(claims)
	if err != nil {
		return nil, err
	}
	typ, _ := claims["typ"].(string)
	if TokenKind(typ) != kind {
		return nil, fmt.Errorf("expected %s token, got %q", kind, typ)
	}
	email, _ := claims["email"].(string)
	return &Claims{UserID: userID, Email: email, Role: role, Kind: kind}, nil
}

func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["sub"].(string)
	if !ok || id == "" {
		return "", errors.New("sub claim is missing or not a string")
	}
	return id, nil
}

func GetUserRoleFromClaims(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}
