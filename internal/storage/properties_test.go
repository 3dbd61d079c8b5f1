package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProperties(t *testing.T, repo *PropertyRepository, props ...*model.Property) {
	t.Helper()
	for _, p := range props {
		_, err := repo.Create(context.Background(), p)
		require.NoError(t, err)
	}
}

func propertyNames(props []model.Property) []string {
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Name
	}
	return names
}

func TestPropertyRepository_GetByCity(t *testing.T) {
	store := createTestStorage(t)
	repo := NewPropertyRepository(store)
	ctx := context.Background()

	seedProperties(t, repo,
		newProperty("t1", "Loft", "Denver", 1800),
		newProperty("t1", "Bungalow", "Boulder", 2200),
		newProperty("t1", "Duplex", "Denver", 1400),
		newProperty("t2", "Other", "Denver", 1000),
	)

	found, err := repo.GetByCity(ctx, "t1", "Denver")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Loft", "Duplex"}, propertyNames(found))

	none, err := repo.GetByCity(ctx, "t1", "Paris")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = repo.GetByCity(ctx, "t1", " ")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestPropertyRepository_GetByRentRange(t *testing.T) {
	store := createTestStorage(t)
	repo := NewPropertyRepository(store)
	ctx := context.Background()

	seedProperties(t, repo,
		newProperty("t1", "Cheap", "Austin", 800),
		newProperty("t1", "Middle", "Austin", 1500),
		newProperty("t1", "Pricey", "Austin", 3000),
		newProperty("t2", "Stranger", "Austin", 1500),
	)

	tests := []struct {
		name     string
		min, max decimal.Decimal
		want     []string
	}{
		{"inclusive bounds", decimal.NewFromInt(800), decimal.NewFromInt(1500), []string{"Cheap", "Middle"}},
		{"single value", decimal.NewFromInt(3000), decimal.NewFromInt(3000), []string{"Pricey"}},
		{"fractional bounds", decimal.RequireFromString("1499.99"), decimal.RequireFromString("1500.01"), []string{"Middle"}},
		{"nothing in range", decimal.NewFromInt(1), decimal.NewFromInt(2), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.GetByRentRange(ctx, "t1", tt.min, tt.max)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, propertyNames(found))
		})
	}
}

func TestPropertyRepository_GetByRentRangeInvalid(t *testing.T) {
	store := createTestStorage(t)
	repo := NewPropertyRepository(store)
	ctx := context.Background()

	_, err := repo.GetByRentRange(ctx, "t1", decimal.NewFromInt(2000), decimal.NewFromInt(1000))
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = repo.GetByRentRange(ctx, "t1", decimal.NewFromInt(-1), decimal.NewFromInt(1000))
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = repo.GetByRentRange(ctx, "", decimal.Zero, decimal.NewFromInt(1000))
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestPropertyRepository_Search(t *testing.T) {
	store := createTestStorage(t)
	repo := NewPropertyRepository(store)
	ctx := context.Background()

	garden := newProperty("t1", "Garden Flat", "Portland", 1300)
	garden.Description = "Ground floor with a shared GARDEN"
	tower := newProperty("t1", "Tower", "Seattle", 2500)
	tower.Description = "Views of the sound"
	discount := newProperty("t1", "Promo", "Salem", 900)
	discount.Description = "Save 100% on the first month"
	other := newProperty("t2", "Garden House", "Portland", 1100)
	altbau := newProperty("t1", "Altbau", "München", 1200)
	speicher := newProperty("t1", "Speicher", "MÜNCHEN", 1500)
	seedProperties(t, repo, garden, tower, discount, other, altbau, speicher)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"matches name ignoring case", "garden", []string{"Garden Flat"}},
		{"matches city", "SEATTLE", []string{"Tower"}},
		{"matches street", "promo street", []string{"Promo"}},
		{"matches description", "the sound", []string{"Tower"}},
		{"percent is literal", "100%", []string{"Promo"}},
		{"underscore is literal", "a_b", []string{}},
		{"folds ascii around other letters", "mÜNCHEN", []string{"Speicher"}},
		{"non-ascii letters match as written", "münchen", []string{"Altbau"}},
		{"non-ascii letters are not folded", "MüNCHEN", []string{"Altbau"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.Search(ctx, "t1", tt.text)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, propertyNames(found))
		})
	}

	_, err := repo.Search(ctx, "t1", "")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}
