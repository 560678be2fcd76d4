package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintenance-service/internal/model"
)

func testUser() *model.User {
	return &model.User{
		ID:        7,
		Username:  "somchai",
		Email:     "somchai@example.com",
		FirstName: "Somchai",
		LastName:  "Jaidee",
		IsStaff:   true,
	}
}

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour, 24*time.Hour)
	parser := NewParser("secret")

	pair, err := issuer.Issue(testUser(), model.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	claims, err := parser.Parse(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "somchai", claims.Username)
	assert.Equal(t, "somchai@example.com", claims.Email)
	assert.True(t, claims.IsStaff)
	assert.False(t, claims.IsSuperuser)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)

	principal := claims.Principal()
	assert.True(t, principal.IsAdmin())
	assert.Equal(t, uint(7), principal.UserID)

	refresh, err := parser.ParseRefresh(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
}

func TestParse_RejectsWrongTokenType(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour, 24*time.Hour)
	parser := NewParser("secret")

	pair, err := issuer.Issue(testUser(), model.RoleUser)
	require.NoError(t, err)

	_, err = parser.Parse(pair.Refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = parser.ParseRefresh(pair.Access)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestParse_RejectsBadSignatureAndExpiry(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour, 24*time.Hour)

	pair, err := issuer.Issue(testUser(), model.RoleUser)
	require.NoError(t, err)

	_, err = NewParser("other").Parse(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewIssuer("secret", time.Minute, time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.IssueAccess(testUser(), model.RoleUser)
	require.NoError(t, err)

	_, err = NewParser("secret").Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewParser("secret").Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.NoError(t, CheckPassword(hash, "hunter22"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrPasswordMismatch)
}
