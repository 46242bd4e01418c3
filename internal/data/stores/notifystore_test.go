package stores

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/harvest/internal/core/notify"
	"github.com/colonyops/harvest/internal/data/db"
)

func TestNotifyStore(t *testing.T) {
	ctx := context.Background()

	open := func(t *testing.T, retain int) *NotifyStore {
		t.Helper()
		database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
		require.NoError(t, err)
		t.Cleanup(func() { _ = database.Close() })
		return NewNotifyStore(database, retain)
	}

	t.Run("save and list newest first", func(t *testing.T) {
		store := open(t, 0)
		base := time.Now()

		for i, n := range []notify.Notification{
			{Level: notify.LevelInfo, Message: "exported csv (2.0 kB) to ./dataset_run-1.csv"},
			{Level: notify.LevelError, Message: "export: status 401", Hint: notify.ReauthHint},
			{Level: notify.LevelWarning, Message: "r2 has no images or videos"},
		} {
			n.CreatedAt = base.Add(time.Duration(i) * time.Second)
			id, err := store.Save(ctx, n)
			require.NoError(t, err)
			assert.Equal(t, int64(i+1), id)
		}

		items, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, notify.LevelWarning, items[0].Level)
		assert.Equal(t, "export: status 401", items[1].Message)
		assert.Equal(t, notify.ReauthHint, items[1].Hint)
		assert.Equal(t, base.Add(time.Second).UnixNano(), items[1].CreatedAt.UnixNano())
		assert.Empty(t, items[2].Hint)
	})

	t.Run("empty list is not nil", func(t *testing.T) {
		store := open(t, 0)

		items, err := store.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("retention prunes oldest", func(t *testing.T) {
		store := open(t, 3)
		base := time.Now()

		for i := range 5 {
			_, err := store.Save(ctx, notify.Notification{
				Level:     notify.LevelInfo,
				Message:   fmt.Sprintf("copied record r%d", i),
				CreatedAt: base.Add(time.Duration(i) * time.Second),
			})
			require.NoError(t, err)
		}

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		items, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "copied record r4", items[0].Message)
		assert.Equal(t, "copied record r2", items[2].Message)
	})

	t.Run("clear", func(t *testing.T) {
		store := open(t, 0)
		_, err := store.Save(ctx, notify.Notification{Level: notify.LevelInfo, Message: "x", CreatedAt: time.Now()})
		require.NoError(t, err)

		require.NoError(t, store.Clear(ctx))

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
