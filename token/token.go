package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"

	AccessTTL  = 24 * time.Hour
	RefreshTTL = 7 * 24 * time.Hour
)

var ErrWrongKind = errors.New("token kind mismatch")

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

// Pair is an access token with the refresh token that can replace it.
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Issuer signs and verifies HS256 tokens with one shared secret.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), now: time.Now}
}

func (i *Issuer) Issue(userID, email string) (Pair, error) {
	now := i.now()
	access, err := i.sign(userID, email, KindAccess, now, now.Add(AccessTTL))
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.sign(userID, email, KindRefresh, now, now.Add(RefreshTTL))
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh, ExpiresAt: now.Add(AccessTTL)}, nil
}

// Sign creates a single token with explicit validity bounds.
func (i *Issuer) Sign(userID, kind string, expiresAt time.Time) (string, error) {
	return i.sign(userID, "", kind, i.now(), expiresAt)
}

func (i *Issuer) sign(userID, email, kind string, issuedAt, expiresAt time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Parse verifies signature, expiry and kind, and returns the claims.
func (i *Issuer) Parse(tokenStr, kind string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, ErrWrongKind
	}
	if claims.UserID == "" {
		return nil, errors.New("token missing user_id")
	}
	return claims, nil
}
