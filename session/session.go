// Package session carries the authenticated staff member through a request.
// A Session is issued after a password check and travels as a signed JWT.
package session

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/yeremiapane/table-order/models"
)

type Capability string

const (
	CapReadOrders    Capability = "orders:read"
	CapAdvanceOrders Capability = "orders:advance"
	CapCloseTables   Capability = "tables:close"
	CapServeOrders   Capability = "orders:serve"
	CapReadReports   Capability = "reports:read"
	CapManageUsers   Capability = "users:manage"
)

var roleCapabilities = map[models.Role][]Capability{
	models.RoleKitchen: {CapReadOrders, CapAdvanceOrders},
	models.RoleWaiter:  {CapReadOrders, CapCloseTables, CapServeOrders},
	models.RoleAdmin: {
		CapReadOrders, CapAdvanceOrders, CapCloseTables,
		CapServeOrders, CapReadReports, CapManageUsers,
	},
}

const contextKey = "session"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNoSession    = errors.New("not authenticated")
)

type Session struct {
	UserID   uint
	Username string
	Role     models.Role
	Expires  time.Time
}

func (s *Session) Can(c Capability) bool {
	if s == nil {
		return false
	}
	for _, have := range roleCapabilities[s.Role] {
		if have == c {
			return true
		}
	}
	return false
}

func (s *Session) Capabilities() []Capability {
	return append([]Capability(nil), roleCapabilities[s.Role]...)
}

type claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) Issue(user models.User) (string, *Session, error) {
	now := i.now()
	s := &Session{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Expires:  now.Add(i.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.Expires),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "table-order",
		},
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, s, nil
}

func (i *Issuer) Parse(tokenString string) (*Session, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	role := models.Role(c.Role)
	if c.UserID == 0 || !role.Valid() {
		return nil, ErrInvalidToken
	}

	s := &Session{UserID: c.UserID, Username: c.Username, Role: role}
	if c.ExpiresAt != nil {
		s.Expires = c.ExpiresAt.Time
	}
	return s, nil
}

func Set(c *gin.Context, s *Session) {
	c.Set(contextKey, s)
}

// From returns the request's session, or nil when the route is public.
func From(c *gin.Context) *Session {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	s, _ := v.(*Session)
	return s
}
