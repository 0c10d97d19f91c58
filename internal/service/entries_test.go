package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/weighttrack/internal/models"
	"github.com/mmynk/weighttrack/internal/storage"
)

func TestAddEntryThenGetEntries(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewEntryService(env.store, env.opts()...)

	ts := time.Date(2024, 3, 9, 7, 15, 0, 0, time.UTC)
	created, err := svc.AddEntry(ctx, models.NewEntry{Weight: 81.4, Training: "1", Sleep: lo.ToPtr(models.SleepFair), Timestamp: ts}, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.Author)

	entries, err := svc.GetEntries(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, *created, entries[0])
	assert.Equal(t, 81.4, entries[0].Weight)
	assert.Equal(t, models.ActivityID("1"), entries[0].Training)
	assert.Equal(t, models.SleepFair, entries[0].Sleep)
	assert.Equal(t, ts, entries[0].Timestamp)
}

func TestAddEntry_DefaultsTimestampToNow(t *testing.T) {
	env := newTestEnv(t)
	svc := NewEntryService(env.store, env.opts()...)

	created, err := svc.AddEntry(context.Background(), models.NewEntry{Weight: 70, Training: "0", Sleep: lo.ToPtr(models.SleepGood)}, "alice")
	require.NoError(t, err)
	assert.Equal(t, env.clock.Now(), created.Timestamp)
}

func TestAddEntry_TrimsTraining(t *testing.T) {
	env := newTestEnv(t)
	svc := NewEntryService(env.store, env.opts()...)

	created, err := svc.AddEntry(context.Background(), models.NewEntry{Weight: 70, Training: " 1\t", Sleep: lo.ToPtr(models.SleepPoor)}, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.ActivityID("1"), created.Training)
	assert.Equal(t, models.SleepPoor, created.Sleep)
}

func TestAddEntry_UniqueIDs(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewEntryService(env.store, env.opts()...)

	// The clock is frozen, so ids differ only by their random suffix.
	for range 10 {
		_, err := svc.AddEntry(ctx, models.NewEntry{Weight: 70, Training: "0", Sleep: lo.ToPtr(models.SleepGood)}, "alice")
		require.NoError(t, err)
	}
	entries, err := svc.GetEntries(ctx, "alice")
	require.NoError(t, err)
	ids := lo.Map(entries, func(e models.WeightEntry, _ int) string { return e.ID })
	assert.Len(t, lo.Uniq(ids), 10)
}

func TestAddEntry_Validation(t *testing.T) {
	good := lo.ToPtr(models.SleepGood)
	tests := []struct {
		name      string
		in        models.NewEntry
		wantField string
	}{
		{"zero weight", models.NewEntry{Weight: 0, Training: "0", Sleep: good}, "weight"},
		{"negative weight", models.NewEntry{Weight: -3, Training: "0", Sleep: good}, "weight"},
		{"missing training", models.NewEntry{Weight: 70, Sleep: good}, "training"},
		{"blank training", models.NewEntry{Weight: 70, Training: "   ", Sleep: good}, "training"},
		{"missing sleep", models.NewEntry{Weight: 70, Training: "0"}, "sleep"},
		{"sleep out of range", models.NewEntry{Weight: 70, Training: "0", Sleep: lo.ToPtr(models.SleepQuality(3))}, "sleep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			svc := NewEntryService(env.store, env.opts()...)

			_, err := svc.AddEntry(context.Background(), tt.in, "alice")
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.False(t, env.exists(t, env.store.PathFor(storage.DomainEntries, "alice")))
		})
	}
}

func TestGetEntries(t *testing.T) {
	ctx := context.Background()

	t.Run("missing document is empty and not created", func(t *testing.T) {
		env := newTestEnv(t)
		svc := NewEntryService(env.store, env.opts()...)

		entries, err := svc.GetEntries(ctx, "alice")
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
		assert.False(t, env.exists(t, env.store.PathFor(storage.DomainEntries, "alice")))
	})

	t.Run("newest first", func(t *testing.T) {
		env := newTestEnv(t)
		svc := NewEntryService(env.store, env.opts()...)
		base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
		for _, days := range []int{3, 0, 5, 1} {
			_, err := svc.AddEntry(ctx, models.NewEntry{Weight: 70 + float64(days), Training: "0", Timestamp: base.AddDate(0, 0, days), Sleep: lo.ToPtr(models.SleepGood)}, "alice")
			require.NoError(t, err)
		}

		entries, err := svc.GetEntries(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []float64{75, 73, 71, 70}, lo.Map(entries, func(e models.WeightEntry, _ int) float64 { return e.Weight }))
	})

	t.Run("legacy numeric training", func(t *testing.T) {
		env := newTestEnv(t)
		env.writeLegacy(t, "/data/entries-alice.json",
			`[{"id":"1700000000000-abc","author":"alice","weight":80,"training":2,"sleep":1,"timestamp":"2023-11-14T22:13:20.000Z"}]`)
		svc := NewEntryService(env.store, env.opts()...)

		entries, err := svc.GetEntries(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, models.ActivityID("2"), entries[0].Training)
		assert.False(t, env.exists(t, "/data/entries-alice.json"))
	})

	t.Run("corrupt document propagates", func(t *testing.T) {
		env := newTestEnv(t)
		env.putDoc(t, storage.DomainEntries, "alice", `{not json`)
		svc := NewEntryService(env.store, env.opts()...)

		_, err := svc.GetEntries(ctx, "alice")
		require.Error(t, err)
		assert.NotErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("rejects path-like user ids", func(t *testing.T) {
		env := newTestEnv(t)
		svc := NewEntryService(env.store, env.opts()...)

		_, err := svc.GetEntries(ctx, "../users/users")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestUpdateEntry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewEntryService(env.store, env.opts()...)
	created, err := svc.AddEntry(ctx, models.NewEntry{Weight: 82, Training: "1", Sleep: lo.ToPtr(models.SleepGood)}, "alice")
	require.NoError(t, err)

	t.Run("unknown id leaves the document untouched", func(t *testing.T) {
		before := env.readDoc(t, storage.DomainEntries, "alice")

		got, err := svc.UpdateEntry(ctx, "does-not-exist", models.EntryPatch{Weight: lo.ToPtr(80.0)}, "alice")
		require.NoError(t, err)
		assert.Nil(t, got)

		assert.Equal(t, before, env.readDoc(t, storage.DomainEntries, "alice"))
	})

	t.Run("partial update", func(t *testing.T) {
		got, err := svc.UpdateEntry(ctx, created.ID, models.EntryPatch{Weight: lo.ToPtr(80.0)}, "alice")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 80.0, got.Weight)
		assert.Equal(t, created.Training, got.Training)
		assert.Equal(t, created.Timestamp, got.Timestamp)

		entries, err := svc.GetEntries(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, *got, entries[0])
	})

	t.Run("invalid patch", func(t *testing.T) {
		_, err := svc.UpdateEntry(ctx, created.ID, models.EntryPatch{Sleep: lo.ToPtr(models.SleepQuality(7))}, "alice")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("blank training", func(t *testing.T) {
		_, err := svc.UpdateEntry(ctx, created.ID, models.EntryPatch{Training: lo.ToPtr(models.ActivityID("  "))}, "alice")
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "training", ve.Field)
	})

	t.Run("training is trimmed", func(t *testing.T) {
		got, err := svc.UpdateEntry(ctx, created.ID, models.EntryPatch{Training: lo.ToPtr(models.ActivityID(" 2 "))}, "alice")
		require.NoError(t, err)
		assert.Equal(t, models.ActivityID("2"), got.Training)
	})

	t.Run("other users cannot see the entry", func(t *testing.T) {
		got, err := svc.UpdateEntry(ctx, created.ID, models.EntryPatch{Weight: lo.ToPtr(1.0)}, "bob")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewEntryService(env.store, env.opts()...)
	keep, err := svc.AddEntry(ctx, models.NewEntry{Weight: 70, Training: "0", Sleep: lo.ToPtr(models.SleepGood)}, "alice")
	require.NoError(t, err)
	drop, err := svc.AddEntry(ctx, models.NewEntry{Weight: 71, Training: "0", Sleep: lo.ToPtr(models.SleepGood)}, "alice")
	require.NoError(t, err)

	removed, err := svc.DeleteEntry(ctx, drop.ID, "alice")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.DeleteEntry(ctx, drop.ID, "alice")
	require.NoError(t, err)
	assert.False(t, removed)

	entries, err := svc.GetEntries(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, keep.ID, entries[0].ID)
}

func TestAddEntry_Concurrent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewEntryService(env.store, env.opts()...)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddEntry(ctx, models.NewEntry{Weight: 60 + float64(i), Training: "0", Sleep: lo.ToPtr(models.SleepGood)}, "alice")
			if err != nil {
				errs <- fmt.Errorf("add %d: %w", i, err)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	entries, err := svc.GetEntries(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}
