package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"user", RoleUser, false},
		{"admin", RoleAdmin, false},
		{"Admin", "", true},
		{"", "", true},
		{"manager", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRole_Scan(t *testing.T) {
	var r Role
	require.NoError(t, r.Scan([]byte("admin")))
	assert.Equal(t, RoleAdmin, r)

	require.NoError(t, r.Scan("user"))
	assert.Equal(t, RoleUser, r)

	assert.Error(t, r.Scan("root"))
	assert.Error(t, r.Scan(42))
}

func TestRole_Value(t *testing.T) {
	v, err := RoleAdmin.Value()
	require.NoError(t, err)
	assert.Equal(t, "admin", v)

	_, err = Role("superuser").Value()
	assert.Error(t, err)
}

func TestRole_JSON(t *testing.T) {
	var payload struct {
		Role Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"admin"}`), &payload))
	assert.Equal(t, RoleAdmin, payload.Role)

	assert.Error(t, json.Unmarshal([]byte(`{"role":"owner"}`), &payload))

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"admin"}`, string(out))
}

func TestUser_PasswordNotSerialized(t *testing.T) {
	u := User{ID: 1, Username: "ann", Email: "ann@x.com", Password: "$2a$10$hash", Role: RoleUser}

	out, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "password")
	assert.NotContains(t, string(out), "$2a$10$hash")
}

func TestProduct_ImageLifecycle(t *testing.T) {
	p := Product{Name: "RAM"}
	assert.False(t, p.HasImage())

	p.SetImage("products/a.png", "http://localhost/storage/products/a.png")
	assert.True(t, p.HasImage())
	assert.Equal(t, "products/a.png", *p.ImageKey)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"image":"http://localhost/storage/products/a.png"`)
	assert.NotContains(t, string(out), "image_key")
	assert.NotContains(t, string(out), "ImageKey")

	p.ClearImage()
	assert.False(t, p.HasImage())
	out, err = json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"image":null`)
}
