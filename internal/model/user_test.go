package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_JSONNeverContainsPassword(t *testing.T) {
	u := User{ID: "1", Name: "Ann", Email: "ann@example.com", Password: "$2a$10$secret"}

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "password")

	raw, err = json.Marshal(u.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
}

func TestUser_Prepare(t *testing.T) {
	u := User{Name: "Ann"}
	u.Prepare()

	assert.Len(t, u.ID, 36)
	assert.Equal(t, RoleUser, u.Role)
	assert.NotNil(t, u.Skills)

	id := u.ID
	u.Prepare()
	assert.Equal(t, id, u.ID)
}

func TestUser_PublicSkillsNeverNull(t *testing.T) {
	u := User{ID: "1"}
	raw, err := json.Marshal(u.Public())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"skills":[]`)
	assert.NotContains(t, string(raw), `"avatar"`)
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleRecruiter.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("root").Valid())
	assert.False(t, Role("").Valid())
}
