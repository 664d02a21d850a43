package service

import (
	"testing"

	"bitwise74/member-portal/model"
	"bitwise74/member-portal/pkg/security"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminBootstrapCreatesExactlyOneAdmin(t *testing.T) {
	db := testDB(t)
	h := security.NewHasher()

	viper.Set("admin.email", "Admin@Example.com")
	viper.Set("admin.username", "")
	viper.Set("admin.password", "AdminSecret1!")
	defer func() {
		viper.Set("admin.email", "")
		viper.Set("admin.password", "")
	}()

	require.NoError(t, AdminBootstrap(db, h))
	// A restart with the same environment must be a no-op
	require.NoError(t, AdminBootstrap(db, h))

	var admins []model.User
	require.NoError(t, db.Where("role = ?", model.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)

	assert.Equal(t, "admin", admins[0].Username)
	assert.Equal(t, "admin@example.com", admins[0].Email)
	assert.True(t, admins[0].Verified)

	ok, err := h.Compare("AdminSecret1!", admins[0].PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAdminBootstrapWithoutConfigIsNoop(t *testing.T) {
	db := testDB(t)

	viper.Set("admin.email", "")
	viper.Set("admin.password", "")

	require.NoError(t, AdminBootstrap(db, security.NewHasher()))

	var count int64
	require.NoError(t, db.Model(&model.User{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestAdminBootstrapRefusesTakenEmail(t *testing.T) {
	db := testDB(t)
	h := security.NewHasher()

	seedUser(t, db, h, "taken@example.com", "Secret123!")

	viper.Set("admin.email", "taken@example.com")
	viper.Set("admin.password", "AdminSecret1!")
	defer func() {
		viper.Set("admin.email", "")
		viper.Set("admin.password", "")
	}()

	require.NoError(t, AdminBootstrap(db, h))

	var count int64
	require.NoError(t, db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}
