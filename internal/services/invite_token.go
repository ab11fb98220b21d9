package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yukikurage/taskhub/internal/config"
	"github.com/yukikurage/taskhub/internal/utils"
)

var ErrInvalidInviteToken = errors.New("invalid invite token")

// InviteClaims identifies the project an unknown email address was invited to.
type InviteClaims struct {
	ProjectID uint64 `json:"project_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// InviteTokens signs and verifies the tokens embedded in registration links.
type InviteTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewInviteTokens(cfg config.InviteConfig) *InviteTokens {
	return &InviteTokens{
		secret: []byte(cfg.TokenSecret),
		ttl:    cfg.TTL,
		now:    time.Now,
	}
}

// Issue returns a signed token for (projectID, email).
func (t *InviteTokens) Issue(projectID uint64, email string) (string, error) {
	jti, err := utils.GenerateTokenID()
	if err != nil {
		return "", err
	}

	now := t.now()
	claims := InviteClaims{
		ProjectID: projectID,
		Email:     normalizeEmail(email),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign invite token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and time claims of a token.
func (t *InviteTokens) Parse(tokenString string) (*InviteClaims, error) {
	claims := &InviteClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidInviteToken
	}
	if claims.ProjectID == 0 || claims.Email == "" {
		return nil, ErrInvalidInviteToken
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
