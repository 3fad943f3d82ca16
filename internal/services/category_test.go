package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	thai, err := env.categories.CreateCategory(ctx, " Thai ")
	require.NoError(t, err)
	assert.Equal(t, "Thai", thai.Name)

	_, err = env.categories.CreateCategory(ctx, "Thai")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.categories.CreateCategory(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)

	list, err := env.categories.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	updated, err := env.categories.UpdateCategory(ctx, thai.ID, "Thai Street Food")
	require.NoError(t, err)
	assert.Equal(t, "Thai Street Food", updated.Name)

	// writes invalidate the cached list
	list, err = env.categories.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Thai Street Food", list[0].Name)

	_, err = env.categories.UpdateCategory(ctx, 9999, "Ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, env.categories.DeleteCategory(ctx, thai.ID))
	assert.ErrorIs(t, env.categories.DeleteCategory(ctx, thai.ID), ErrNotFound)

	list, err = env.categories.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateCategoryDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustCategory(t, "Thai")
	pizza := env.mustCategory(t, "Pizza")

	_, err := env.categories.UpdateCategory(ctx, pizza.ID, "Thai")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDeleteCategoryInUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.mustCategory(t, "Thai")
	env.mustRestaurant(t, "Baan", cat.ID)

	err := env.categories.DeleteCategory(ctx, cat.ID)
	assert.ErrorIs(t, err, ErrConflict)
}
