package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRole(t *testing.T) {
	tests := []struct {
		name          string
		superuser     bool
		staff         bool
		hasTechnician bool
		want          Role
	}{
		{name: "superuser", superuser: true, want: RoleAdmin},
		{name: "staff", staff: true, want: RoleAdmin},
		{name: "staff with technician profile", staff: true, hasTechnician: true, want: RoleAdmin},
		{name: "technician", hasTechnician: true, want: RoleTechnician},
		{name: "plain user", want: RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRole(tt.superuser, tt.staff, tt.hasTechnician))
		})
	}
}

func TestUserDisplayName(t *testing.T) {
	u := User{Username: "somchai"}
	assert.Equal(t, "somchai", u.DisplayName())

	u.FirstName = "Somchai"
	u.LastName = "Jaidee"
	assert.Equal(t, "Somchai Jaidee", u.DisplayName())
}
