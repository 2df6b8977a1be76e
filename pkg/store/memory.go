package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore implements Store on an in-process map. It serves local
// development and tests the same way MongoStore serves production.
type MemoryStore struct {
	mu      sync.RWMutex
	players map[string]PlayerProgress
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{players: make(map[string]PlayerProgress)}
}

func (s *MemoryStore) Get(ctx context.Context, playerID string) (*PlayerProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[playerID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, p PlayerProgress) (UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.players[p.PlayerID]
	s.players[p.PlayerID] = p

	if existed {
		return UpsertResult{MatchedCount: 1, ModifiedCount: 1}, nil
	}
	return UpsertResult{UpsertedID: p.PlayerID}, nil
}

func (s *MemoryStore) Delete(ctx context.Context, playerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[playerID]; !ok {
		return 0, nil
	}
	delete(s.players, playerID)
	return 1, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.players)), nil
}

func (s *MemoryStore) TopPlayers(ctx context.Context, limit int) ([]PlayerProgress, error) {
	s.mu.RLock()
	players := make([]PlayerProgress, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	s.mu.RUnlock()

	sort.SliceStable(players, func(i, j int) bool {
		if players[i].MaxLevel != players[j].MaxLevel {
			return players[i].MaxLevel > players[j].MaxLevel
		}
		return players[i].TotalScore > players[j].TotalScore
	})

	if limit < len(players) {
		players = players[:limit]
	}
	return players, nil
}

func (s *MemoryStore) CountOutranking(ctx context.Context, maxLevel int, totalScore int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, p := range s.players {
		if p.MaxLevel > maxLevel || (p.MaxLevel == maxLevel && p.TotalScore > totalScore) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Totals(ctx context.Context) (Totals, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.players) == 0 {
		return Totals{}, false, nil
	}

	var totals Totals
	for _, p := range s.players {
		totals.TotalScore += p.TotalScore
		totals.ItemsCollected += p.ItemsCollected
		totals.GamesPlayed += p.GamesPlayed
		if p.MaxLevel > totals.MaxLevel {
			totals.MaxLevel = p.MaxLevel
		}
	}
	return totals, true, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
