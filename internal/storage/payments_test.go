package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPayment(tenantID, propertyID string, amount int64, date time.Time) *model.Payment {
	return &model.Payment{
		Base:       model.Base{TenantID: tenantID},
		PropertyID: propertyID,
		Amount:     decimal.NewFromInt(amount),
		Currency:   "USD",
		Date:       date,
	}
}

func TestPaymentRepository_GetByProperty(t *testing.T) {
	store := createTestStorage(t)
	repo := NewPaymentRepository(store)
	ctx := context.Background()

	propA, propB := uuid.NewString(), uuid.NewString()
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, p := range []*model.Payment{
		newPayment("t1", propA, 1000, jan),
		newPayment("t1", propA, 1000, jan.AddDate(0, 1, 0)),
		newPayment("t1", propB, 500, jan),
		newPayment("t2", propA, 750, jan),
	} {
		_, err := repo.Create(ctx, p)
		require.NoError(t, err)
	}

	found, err := repo.GetByProperty(ctx, "t1", propA)
	require.NoError(t, err)
	require.Len(t, found, 2)
	for _, p := range found {
		assert.Equal(t, propA, p.PropertyID)
		assert.Equal(t, "t1", p.TenantID)
		assert.True(t, decimal.NewFromInt(1000).Equal(p.Amount))
	}

	_, err = repo.GetByProperty(ctx, "t1", "prop")
	assert.ErrorIs(t, err, common.ErrInvalidID)
}

func TestPaymentRepository_GetByPropertyAndDateRange(t *testing.T) {
	store := createTestStorage(t)
	repo := NewPaymentRepository(store)
	ctx := context.Background()

	prop := uuid.NewString()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)

	dates := map[string]time.Time{
		"before":   start.Add(-time.Second),
		"at-start": start,
		"middle":   time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC),
		"at-end":   end,
		"after":    end.Add(time.Second),
	}
	for ref, d := range dates {
		p := newPayment("t1", prop, 100, d)
		p.Reference = ref
		_, err := repo.Create(ctx, p)
		require.NoError(t, err)
	}

	found, err := repo.GetByPropertyAndDateRange(ctx, "t1", prop, start, end)
	require.NoError(t, err)

	refs := make([]string, 0, len(found))
	for _, p := range found {
		refs = append(refs, p.Reference)
	}
	assert.ElementsMatch(t, []string{"at-start", "middle", "at-end"}, refs)

	_, err = repo.GetByPropertyAndDateRange(ctx, "t1", prop, end, start)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestPaymentRepository_DateRangeAcrossZones(t *testing.T) {
	store := createTestStorage(t)
	repo := NewPaymentRepository(store)
	ctx := context.Background()

	prop := uuid.NewString()
	// 23:30 in UTC-5 is already the next day in UTC.
	late := time.Date(2024, 5, 31, 23, 30, 0, 0, time.FixedZone("CDT", -5*3600))
	_, err := repo.Create(ctx, newPayment("t1", prop, 100, late))
	require.NoError(t, err)

	may := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	found, err := repo.GetByPropertyAndDateRange(ctx, "t1", prop, may, may.AddDate(0, 1, 0).Add(-time.Nanosecond))
	require.NoError(t, err)
	assert.Empty(t, found)

	june := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	found, err = repo.GetByPropertyAndDateRange(ctx, "t1", prop, june, june.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, found, 1)
}
