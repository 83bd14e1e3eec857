package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authenticas/authenticas-api/internal/models"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := []byte("test-secret")
	companyID := "c1"
	user := &models.User{
		ID:        "u1",
		Email:     "u1@example.com",
		Role:      models.RoleCompanyAdmin,
		CompanyID: &companyID,
	}

	token, err := GenerateToken(user, secret)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleCompanyAdmin, claims.Role)

	p := claims.Principal()
	assert.True(t, p.InCompany("c1"))
	assert.False(t, p.InCompany("c2"))
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	user := &models.User{ID: "u1", Role: models.RoleCompanyUser}

	token, err := GenerateToken(user, []byte("right"))
	require.NoError(t, err)

	_, err = ValidateToken(token, []byte("wrong"))
	assert.Error(t, err)

	_, err = ValidateToken("not-a-token", []byte("right"))
	assert.Error(t, err)
}

func TestGenerateAPIKeyFormat(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.True(t, IsValidAPIKeyFormat(key))

	other, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	assert.False(t, IsValidAPIKeyFormat("ak_short"))
	assert.False(t, IsValidAPIKeyFormat("plain"))
}
