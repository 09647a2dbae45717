package phenologystore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/phenology/internal/domain/phenology"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := phenology.Query{Search: "taxonKey=1", Geography: []string{"gadmGid=USA.46_1"}}.Key()

	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	hist := phenology.Histogram{
		Search:   "taxonKey=1",
		Total:    10,
		WeekSum:  map[int]int64{24: 10},
		MonthSum: map[int]int64{6: 10},
		WeekArr:  []phenology.WeekBucket{{Count: 10, Week: 24, Months: []int{6}}},
	}
	require.NoError(t, store.Put(ctx, key, hist))

	got, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, hist.WeekSum, got.WeekSum)
	require.Equal(t, hist.WeekArr, got.WeekArr)

	got.WeekSum[24] = 99
	again, _, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, int64(10), again.WeekSum[24])

	require.Equal(t, 1, store.Len())
	require.NoError(t, store.Clear(ctx))
	require.Equal(t, 0, store.Len())
}
