// Package service contains the application services: version governance and
// caller authentication.
package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/content-history/internal/errs"
	"github.com/and161185/content-history/internal/model"
)

// TokenService issues and verifies access tokens that carry an actor.
// The subject is the user id and the token id is the edit session id.
type TokenService interface {
	// Issue signs a token for userID. An empty sessionID starts a new session.
	Issue(userID int64, sessionID string) (model.Tokens, error)
	// Actor verifies token and returns the caller it names.
	Actor(token string) (model.Actor, error)
}

type TokenServiceImpl struct {
	signKey   []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewTokenService constructs TokenService with an HS256 key.
func NewTokenService(signKey []byte, accessTTL time.Duration) *TokenServiceImpl {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &TokenServiceImpl{signKey: signKey, accessTTL: accessTTL, now: time.Now}
}

// Issue creates a signed HS256 JWT for the given user.
func (s *TokenServiceImpl) Issue(userID int64, sessionID string) (model.Tokens, error) {
	if userID <= 0 {
		return model.Tokens{}, fmt.Errorf("%w: user id must be positive", errs.ErrInvalidArgument)
	}
	if sessionID == "" {
		sid, err := uuid.NewV4()
		if err != nil {
			return model.Tokens{}, err
		}
		sessionID = sid.String()
	}

	now := s.now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: signed, SessionID: sessionID, ExpiresAt: exp}, nil
}

// Actor parses and validates token.
func (s *TokenServiceImpl) Actor(token string) (model.Actor, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return model.Actor{}, fmt.Errorf("%w: invalid token", errs.ErrUnauthenticated)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return model.Actor{}, fmt.Errorf("%w: bad subject", errs.ErrUnauthenticated)
	}
	return model.Actor{UserID: id, SessionID: claims.ID}, nil
}
