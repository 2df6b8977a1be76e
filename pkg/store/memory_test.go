package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()

	p, err := s.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestMemoryStoreUpsertCreateThenReplace(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now().UTC()

	res, err := s.Upsert(ctx, PlayerProgress{PlayerID: "p1", CurrentLevel: 2, MaxLevel: 2, LastPlayed: &now})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.MatchedCount)
	assert.Equal(t, "p1", res.UpsertedID)

	res, err = s.Upsert(ctx, PlayerProgress{PlayerID: "p1", CurrentLevel: 5, MaxLevel: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.MatchedCount)
	assert.Equal(t, int64(1), res.ModifiedCount)
	assert.Empty(t, res.UpsertedID)

	p, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 5, p.CurrentLevel)
	assert.Nil(t, p.LastPlayed)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	n, err := s.Delete(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = s.Upsert(ctx, PlayerProgress{PlayerID: "p1", CurrentLevel: 1, MaxLevel: 1})
	require.NoError(t, err)

	n, err = s.Delete(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	p, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestMemoryStoreTotalsEmpty(t *testing.T) {
	s := NewMemoryStore()

	_, found, err := s.Totals(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreTotalsAggregates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	seed := []PlayerProgress{
		{PlayerID: "a", CurrentLevel: 3, MaxLevel: 7, TotalScore: 100, ItemsCollected: 5, GamesPlayed: 2},
		{PlayerID: "b", CurrentLevel: 1, MaxLevel: 2, TotalScore: 40, ItemsCollected: 1, GamesPlayed: 9},
	}
	for _, p := range seed {
		_, err := s.Upsert(ctx, p)
		require.NoError(t, err)
	}

	totals, found, err := s.Totals(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(140), totals.TotalScore)
	assert.Equal(t, int64(6), totals.ItemsCollected)
	assert.Equal(t, int64(11), totals.GamesPlayed)
	assert.Equal(t, 7, totals.MaxLevel)
}

func TestMemoryStoreProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	ctx := context.Background()

	type seedPlayer struct {
		Suffix int
		Level  int
		Score  int64
	}

	seedGen := gen.SliceOf(gopter.CombineGens(
		gen.IntRange(0, 30),
		gen.IntRange(1, 20),
		gen.Int64Range(0, 1000),
	).Map(func(vals []interface{}) seedPlayer {
		return seedPlayer{Suffix: vals[0].(int), Level: vals[1].(int), Score: vals[2].(int64)}
	}))

	buildStore := func(seeds []seedPlayer) (*MemoryStore, map[string]PlayerProgress) {
		s := NewMemoryStore()
		docs := make(map[string]PlayerProgress)
		for _, sd := range seeds {
			p := PlayerProgress{
				PlayerID:     fmt.Sprintf("player-%d", sd.Suffix),
				CurrentLevel: sd.Level,
				MaxLevel:     sd.Level,
				TotalScore:   sd.Score,
			}
			s.Upsert(ctx, p)
			docs[p.PlayerID] = p
		}
		return s, docs
	}

	properties.Property("one document per player id regardless of upsert count", prop.ForAll(
		func(seeds []seedPlayer) bool {
			s, docs := buildStore(seeds)
			count, err := s.Count(ctx)
			return err == nil && count == int64(len(docs))
		},
		seedGen,
	))

	properties.Property("outranking count matches a brute-force scan", prop.ForAll(
		func(seeds []seedPlayer, level int, score int64) bool {
			s, docs := buildStore(seeds)

			var expected int64
			for _, p := range docs {
				if p.MaxLevel > level || (p.MaxLevel == level && p.TotalScore > score) {
					expected++
				}
			}
			got, err := s.CountOutranking(ctx, level, score)
			return err == nil && got == expected
		},
		seedGen,
		gen.IntRange(1, 20),
		gen.Int64Range(0, 1000),
	))

	properties.Property("top players are ordered by level then score", prop.ForAll(
		func(seeds []seedPlayer, limit int) bool {
			s, docs := buildStore(seeds)

			top, err := s.TopPlayers(ctx, limit)
			if err != nil {
				return false
			}
			if len(top) > limit || len(top) > len(docs) {
				return false
			}
			for i := 1; i < len(top); i++ {
				prev, cur := top[i-1], top[i]
				if prev.MaxLevel < cur.MaxLevel {
					return false
				}
				if prev.MaxLevel == cur.MaxLevel && prev.TotalScore < cur.TotalScore {
					return false
				}
			}
			return true
		},
		seedGen,
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
