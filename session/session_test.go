package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-order/models"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	token, issued, err := issuer.Issue(models.User{ID: 4, Username: "cocina", Role: models.RoleKitchen})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	s, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(4), s.UserID)
	assert.Equal(t, "cocina", s.Username)
	assert.Equal(t, models.RoleKitchen, s.Role)
	assert.WithinDuration(t, issued.Expires, s.Expires, time.Second)
}

func TestParseRejects(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	token, _, err := issuer.Issue(models.User{ID: 1, Username: "mozo", Role: models.RoleWaiter})
	require.NoError(t, err)

	expired := NewIssuer("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	badRole, _, err := issuer.Issue(models.User{ID: 1, Username: "x", Role: models.Role("chef")})
	require.NoError(t, err)

	tests := []struct {
		name   string
		issuer *Issuer
		token  string
	}{
		{name: "wrong secret", issuer: NewIssuer("other", time.Hour), token: token},
		{name: "expired", issuer: expired, token: token},
		{name: "garbage", issuer: issuer, token: "not-a-token"},
		{name: "unknown role", issuer: issuer, token: badRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.issuer.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		role models.Role
		cap  Capability
		want bool
	}{
		{models.RoleKitchen, CapAdvanceOrders, true},
		{models.RoleKitchen, CapCloseTables, false},
		{models.RoleKitchen, CapReadReports, false},
		{models.RoleWaiter, CapCloseTables, true},
		{models.RoleWaiter, CapServeOrders, true},
		{models.RoleWaiter, CapAdvanceOrders, false},
		{models.RoleAdmin, CapReadReports, true},
		{models.RoleAdmin, CapManageUsers, true},
		{models.RoleAdmin, CapAdvanceOrders, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+" "+string(tt.cap), func(t *testing.T) {
			s := &Session{Role: tt.role}
			assert.Equal(t, tt.want, s.Can(tt.cap))
		})
	}

	var none *Session
	assert.False(t, none.Can(CapReadOrders))
}
