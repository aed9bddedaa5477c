package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	tests := []struct {
		name  string
		role  Role
		valid bool
	}{
		{"admin", RoleAdmin, true},
		{"user", RoleUser, true},
		{"lowercase admin", Role("admin"), false},
		{"unknown value", Role("Superuser"), false},
		{"empty", Role(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.role.Valid())
		})
	}
}
