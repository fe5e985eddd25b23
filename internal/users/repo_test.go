package users

import (
	"context"
	"testing"

	"github.com/autoaudit/autoaudit-backend/pkg/db"
	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, gdb.Exec(`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  external_auth_id TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return gdb
}

func TestCreateAllowsMultipleUsersWithoutEmail(t *testing.T) {
	gdb := setupUsersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	// the auth provider may omit the email claim; every such subject must
	// still get its own row
	first := &models.User{ExternalAuthID: "ext-1", Email: ""}
	require.NoError(t, repo.Create(ctx, first))

	second := &models.User{ExternalAuthID: "ext-2", Email: ""}
	require.NoError(t, repo.Create(ctx, second))

	assert.NotEqual(t, first.ID, second.ID)

	found, err := repo.FindByExternalAuthID(ctx, "ext-2")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, second.ID, found.ID)
}

func TestCreateAllowsSharedEmailAcrossSubjects(t *testing.T) {
	gdb := setupUsersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{ExternalAuthID: "ext-a", Email: "shared@example.com"}))
	require.NoError(t, repo.Create(ctx, &models.User{ExternalAuthID: "ext-b", Email: "shared@example.com"}))
}

func TestCreateRejectsDuplicateExternalAuthID(t *testing.T) {
	gdb := setupUsersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{ExternalAuthID: "ext-dup", Email: "a@example.com"}))

	err := repo.Create(ctx, &models.User{ExternalAuthID: "ext-dup", Email: "b@example.com"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "external_auth_id"))
}

func TestFindByExternalAuthIDMissReturnsNil(t *testing.T) {
	gdb := setupUsersTestDB(t)
	repo := NewRepository(gdb)

	found, err := repo.FindByExternalAuthID(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, found)
}
