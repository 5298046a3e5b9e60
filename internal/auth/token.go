package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TokenKind separates staff tokens from client portal tokens.
type TokenKind string

const (
	TokenKindInternal TokenKind = "internal"
	TokenKindClient   TokenKind = "client"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret      []byte
	internalTTL time.Duration
	clientTTL   time.Duration
	now         func() time.Time
}

// NewTokenManager builds a new manager. Non-positive TTLs fall back to 8h for
// internal tokens and 2h for client tokens.
func NewTokenManager(secret string, internalTTL, clientTTL time.Duration) *TokenManager {
	if internalTTL <= 0 {
		internalTTL = 8 * time.Hour
	}
	if clientTTL <= 0 {
		clientTTL = 2 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), internalTTL: internalTTL, clientTTL: clientTTL, now: time.Now}
}

// Claims describes JWT payload. Internal tokens carry username/division/role;
// client tokens carry id/email/role/client_id/company_name.
type Claims struct {
	Kind        TokenKind       `json:"kind"`
	Role        string          `json:"role"`
	Username    string          `json:"username,omitempty"`
	Division    domain.Division `json:"division,omitempty"`
	ID          int64           `json:"id,omitempty"`
	Email       string          `json:"email,omitempty"`
	ClientID    int64           `json:"client_id,omitempty"`
	CompanyName string          `json:"company_name,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the principal sum type.
func (c *Claims) Principal() (domain.Principal, error) {
	switch c.Kind {
	case TokenKindInternal:
		role := domain.InternalRole(c.Role)
		if c.Username == "" || !role.Valid() || !c.Division.Valid() {
			return nil, errors.New("malformed internal claims")
		}
		return domain.InternalPrincipal{Username: c.Username, Division: c.Division, Role: role}, nil
	case TokenKindClient:
		role := domain.ClientRole(c.Role)
		if c.ClientID == 0 || !role.Valid() {
			return nil, errors.New("malformed client claims")
		}
		return domain.ClientPrincipal{
			ID:          c.ID,
			Email:       c.Email,
			Role:        role,
			ClientID:    c.ClientID,
			CompanyName: c.CompanyName,
		}, nil
	default:
		return nil, fmt.Errorf("unknown token kind %q", c.Kind)
	}
}

// IssueInternal signs a token for a staff account.
func (tm *TokenManager) IssueInternal(user *domain.User) (string, time.Time, error) {
	return tm.sign(&Claims{
		Kind:     TokenKindInternal,
		Role:     string(user.Role),
		Username: user.Username,
		Division: user.Division,
	}, user.Username, tm.internalTTL)
}

// IssueClient signs a token for a client portal account.
func (tm *TokenManager) IssueClient(user *domain.ClientUser) (string, time.Time, error) {
	return tm.sign(&Claims{
		Kind:        TokenKindClient,
		Role:        string(user.Role),
		ID:          user.ID,
		Email:       user.Email,
		ClientID:    user.ClientID,
		CompanyName: user.CompanyName,
	}, user.Email, tm.clientTTL)
}

func (tm *TokenManager) sign(claims *Claims, subject string, ttl time.Duration) (string, time.Time, error) {
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
