package bootstrap_test

import (
	"testing"

	"anoa.com/socialgraph/internal/bootstrap"
	"anoa.com/socialgraph/internal/entity"
	"anoa.com/socialgraph/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedDevelopmentUsersIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)

	created, err := bootstrap.SeedDevelopmentUsers(db)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	created, err = bootstrap.SeedDevelopmentUsers(db)
	require.NoError(t, err)
	assert.Zero(t, created)

	var admin entity.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	assert.Equal(t, entity.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin123")))

	var bob entity.User
	require.NoError(t, db.Where("username = ?", "bob").First(&bob).Error)
	assert.True(t, bob.IsPrivate)
}
