package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/advisor/internal/models"
	"github.com/xhad/advisor/pkg/profile"
	"github.com/xhad/advisor/pkg/store"
)

func str(s string) *string { return &s }

func TestMemoryStoreGetAbsent(t *testing.T) {
	s := store.NewMemoryStore()

	p, err := s.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = s.Get(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestMemoryStoreSetGet(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	p := profile.Empty()
	p.Risk.Tolerance = str("moderate")
	require.NoError(t, s.Set(ctx, "u1", p))

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "moderate", *got.Risk.Tolerance)

	// Mutating the returned profile does not affect the stored copy
	*got.Risk.Tolerance = "aggressive"
	again, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "moderate", *again.Risk.Tolerance)
}

func TestMemoryStoreMerge(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	base := profile.Empty()
	base.Goals.ShortTerm = str("emergency fund")
	require.NoError(t, s.Set(ctx, "u1", base))

	merged, err := s.Merge(ctx, "u1", &models.ClientProfile{
		Risk: models.Risk{Tolerance: str("conservative")},
	})
	require.NoError(t, err)
	assert.Equal(t, "emergency fund", *merged.Goals.ShortTerm)
	assert.Equal(t, "conservative", *merged.Risk.Tolerance)

	stored, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "conservative", *stored.Risk.Tolerance)
}

func TestMemoryStoreMergeIntoAbsentUser(t *testing.T) {
	s := store.NewMemoryStore()

	merged, err := s.Merge(context.Background(), "fresh", &models.ClientProfile{
		Preferences: []string{"etfs"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"etfs"}, merged.Preferences)
	assert.Nil(t, merged.Risk.Tolerance)
}

func TestMemoryStoreConcurrentMerges(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	incoming := []*models.ClientProfile{
		{Risk: models.Risk{Tolerance: str("moderate")}},
		{TimeHorizon: str("10 years")},
		{Financials: models.Financials{Assets: str("$50,000")}},
	}
	for _, in := range incoming {
		wg.Add(1)
		go func(in *models.ClientProfile) {
			defer wg.Done()
			_, err := s.Merge(ctx, "u1", in)
			assert.NoError(t, err)
		}(in)
	}
	wg.Wait()

	final, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, final)
	assert.Equal(t, "moderate", *final.Risk.Tolerance)
	assert.Equal(t, "10 years", *final.TimeHorizon)
	assert.Equal(t, "$50,000", *final.Financials.Assets)
}
