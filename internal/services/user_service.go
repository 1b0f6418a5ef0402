// Package services – VisitorService
//
// This file implements VisitorService, which identifies anonymous visitors.
// A visitor is a user row keyed by an opaque id; the id travels in a signed
// token stored in a cookie. Visitors without a cookie are recognised by a
// SHA-256 hash of their client IP, in which case the cookie is re-issued.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/speisly/mensa-api/internal/repo"
)

// VisitorCookieName is the cookie carrying the visitor token.
const VisitorCookieName = "speisly_user_id"

// VisitorClaims is the payload of a visitor token.
type VisitorClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Visitor is the outcome of identifying a request.
type Visitor struct {
	// UserID is empty for an unknown visitor.
	UserID string
	// Token is set when the caller should (re-)issue the cookie.
	Token string
}

// VisitorService signs and verifies visitor tokens and resolves visitors.
type VisitorService struct {
	DB *gorm.DB

	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	now    func() time.Time
}

// NewVisitorService returns a VisitorService signing with secret using alg
// (HS256, HS384 or HS512).
func NewVisitorService(db *gorm.DB, secret, alg string, ttl time.Duration) (*VisitorService, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	var m *jwt.SigningMethodHMAC
	switch strings.ToUpper(alg) {
	case "", "HS256":
		m = jwt.SigningMethodHS256
	case "HS384":
		m = jwt.SigningMethodHS384
	case "HS512":
		m = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported JWT algorithm %q", alg)
	}
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	return &VisitorService{DB: db, secret: []byte(secret), method: m, ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of issued tokens.
func (s *VisitorService) TTL() time.Duration { return s.ttl }

// IssueToken signs a token for userID.
func (s *VisitorService) IssueToken(userID string) (string, error) {
	now := s.now()
	claims := VisitorClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign visitor token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies token and returns its user id, or ErrInvalidToken.
func (s *VisitorService) ParseToken(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	var claims VisitorClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{s.method.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// HashIP returns the hex SHA-256 of the client address: the first
// X-Forwarded-For entry, else X-Real-IP, else "unknown".
func HashIP(forwardedFor, realIP string) string {
	ip := strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
	if ip == "" {
		ip = strings.TrimSpace(realIP)
	}
	if ip == "" {
		ip = "unknown"
	}
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

// Identify resolves a visitor without creating one. A valid token wins;
// otherwise a visitor known by ipHash is returned with a fresh token.
func (s *VisitorService) Identify(ctx context.Context, token, ipHash string) (Visitor, error) {
	if id, err := s.ParseToken(token); err == nil {
		return Visitor{UserID: id}, nil
	}
	u, err := repo.FindUserByIPHash(ctx, s.DB, ipHash)
	if errors.Is(err, repo.ErrNotFound) {
		return Visitor{}, nil
	}
	if err != nil {
		return Visitor{}, err
	}
	return s.reissue(u.ID)
}

// GetOrCreate resolves a visitor like Identify and creates one when
// unknown. A token naming a missing user row recreates the row under the
// same id.
func (s *VisitorService) GetOrCreate(ctx context.Context, token, ipHash string) (Visitor, error) {
	if id, err := s.ParseToken(token); err == nil {
		_, err := repo.GetUser(ctx, s.DB, id)
		if errors.Is(err, repo.ErrNotFound) {
			_, err = repo.CreateUser(ctx, s.DB, id, ipHash)
			if repo.IsDuplicate(err) {
				err = nil
			}
		}
		if err != nil {
			return Visitor{}, err
		}
		return Visitor{UserID: id}, nil
	}

	v, err := s.Identify(ctx, "", ipHash)
	if err != nil || v.UserID != "" {
		return v, err
	}

	u, err := repo.CreateUser(ctx, s.DB, "", ipHash)
	if err != nil {
		return Visitor{}, err
	}
	return s.reissue(u.ID)
}

func (s *VisitorService) reissue(userID string) (Visitor, error) {
	tok, err := s.IssueToken(userID)
	if err != nil {
		return Visitor{}, err
	}
	return Visitor{UserID: userID, Token: tok}, nil
}
