package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"forkhub/internal/db"
	"forkhub/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db         *gorm.DB
	identity   *IdentityService
	engagement *EngagementService
	categories *CategoryService
	catalog    *CatalogService
	feed       *FeedService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := db.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		sqlDB, _ := conn.DB()
		sqlDB.Close()
	})

	identity := NewIdentityService(conn)
	categories := NewCategoryService(conn)
	return &testEnv{
		db:         conn,
		identity:   identity,
		engagement: NewEngagementService(conn),
		categories: categories,
		catalog:    NewCatalogService(conn, categories),
		feed:       NewFeedService(conn, identity),
	}
}

func (e *testEnv) mustUser(t *testing.T, name string) *models.User {
	t.Helper()
	user, err := e.identity.CreateUser(context.Background(), SignUpInput{
		Name:                 name,
		Email:                strings.ToLower(name) + "@example.com",
		Password:             "pw123",
		PasswordConfirmation: "pw123",
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) mustAdmin(t *testing.T, name string) *models.User {
	t.Helper()
	user := e.mustUser(t, name)
	require.NoError(t, e.db.Model(user).Update("is_admin", true).Error)
	user.IsAdmin = true
	return user
}

func (e *testEnv) mustCategory(t *testing.T, name string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name}
	require.NoError(t, e.db.Create(c).Error)
	return c
}

func (e *testEnv) mustRestaurant(t *testing.T, name string, categoryID uint) *models.Restaurant {
	t.Helper()
	r := &models.Restaurant{
		Name:        name,
		Description: name + " serves food that is worth the trip across town, every single day of the week.",
		CategoryID:  categoryID,
	}
	require.NoError(t, e.db.Create(r).Error)
	return r
}

func (e *testEnv) actor(t *testing.T, userID uint) *Actor {
	t.Helper()
	a, err := e.identity.LoadActor(context.Background(), userID)
	require.NoError(t, err)
	return a
}
