// Package auth turns a bearer token into a read-only session and decides page access.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jwalitptl/birthcare-portal/internal/model"
)

var ErrInvalidToken = errors.New("auth: invalid session token")

// Claims is the payload of a session token issued by the clinic API.
type Claims struct {
	jwt.RegisteredClaims
	UserID      int64                 `json:"user_id"`
	Name        string                `json:"name"`
	Email       string                `json:"email"`
	Role        model.UserRole        `json:"role"`
	Permissions []model.PermissionTag `json:"permissions"`
}

// ParseSession verifies an HMAC-signed token and returns the session it describes.
// Unknown permission tags are dropped.
func ParseSession(token string, secret []byte) (*model.Session, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	userID := claims.UserID
	if userID == 0 && claims.Subject != "" {
		if id, err := strconv.ParseInt(claims.Subject, 10, 64); err == nil {
			userID = id
		}
	}
	if userID == 0 {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}

	perms := make(model.PermissionSet, len(claims.Permissions))
	for _, p := range claims.Permissions {
		if p.Valid() {
			perms[p] = struct{}{}
		}
	}

	session := &model.Session{
		UserID:      userID,
		Name:        claims.Name,
		Email:       claims.Email,
		Role:        claims.Role,
		Permissions: perms,
		Token:       token,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// IssueToken signs a session token with HS256. The clinic API issues real tokens.
func IssueToken(s model.Session, secret []byte, ttl time.Duration, now time.Time) (string, error) {
	perms := make([]model.PermissionTag, 0, len(s.Permissions))
	for _, p := range model.AllPermissions {
		if s.Permissions.Has(p) {
			perms = append(perms, p)
		}
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(s.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:      s.UserID,
		Name:        s.Name,
		Email:       s.Email,
		Role:        s.Role,
		Permissions: perms,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
