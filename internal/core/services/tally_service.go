package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"award-portal/internal/adapters/persistence/repositories"
)

// tallyCacheTTL bounds tally staleness under polling clients.
const tallyCacheTTL = 5 * time.Second

// NomineeCount is one row of a category tally
type NomineeCount struct {
	NomineeID   uint    `json:"nominee_id"`
	DisplayName string  `json:"display_name"`
	Count       int64   `json:"count"`
	Percentage  float64 `json:"percentage"`
}

type cachedTally struct {
	counts    []NomineeCount
	expiresAt time.Time
}

// TallyService derives per-nominee vote counts from the vote ledger. The
// ledger is the source of truth; the in-memory cache is a read fast-path for
// polling clients and is never consulted by the commit path.
type TallyService struct {
	voteRepo    *repositories.VoteRepository
	nomineeRepo *repositories.NomineeRepository

	mu    sync.RWMutex
	cache map[uint]*cachedTally
}

// NewTallyService creates a new tally service
func NewTallyService(voteRepo *repositories.VoteRepository, nomineeRepo *repositories.NomineeRepository) *TallyService {
	return &TallyService{
		voteRepo:    voteRepo,
		nomineeRepo: nomineeRepo,
		cache:       make(map[uint]*cachedTally),
	}
}

// GetCounts returns the tally for a category, one row per approved nominee
// (zero rows included), ordered by count descending then name. Percentage is
// count/sum*100, 0 when the category has no votes.
func (s *TallyService) GetCounts(ctx context.Context, categoryID uint) ([]NomineeCount, error) {
	s.mu.RLock()
	cached, ok := s.cache[categoryID]
	s.mu.RUnlock()
	if ok && time.Now().Before(cached.expiresAt) {
		return cached.counts, nil
	}

	counts, err := s.computeCounts(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[categoryID] = &cachedTally{counts: counts, expiresAt: time.Now().Add(tallyCacheTTL)}
	s.mu.Unlock()

	return counts, nil
}

// GetCount returns the committed vote count for a single nominee, read
// straight from the ledger.
func (s *TallyService) GetCount(ctx context.Context, nomineeID uint) (int64, error) {
	return s.voteRepo.CountByNominee(ctx, nomineeID)
}

// Invalidate drops the cached tally for a category. Called after a vote
// commit so readers converge before the TTL lapses.
func (s *TallyService) Invalidate(categoryID uint) {
	s.mu.Lock()
	delete(s.cache, categoryID)
	s.mu.Unlock()
}

func (s *TallyService) computeCounts(ctx context.Context, categoryID uint) ([]NomineeCount, error) {
	nominees, err := s.nomineeRepo.ListApprovedByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	rows, err := s.voteRepo.CountsByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	byNominee := make(map[uint]int64, len(rows))
	var sum int64
	for _, row := range rows {
		byNominee[row.NomineeID] = row.Count
		sum += row.Count
	}

	counts := make([]NomineeCount, 0, len(nominees))
	for _, n := range nominees {
		count := byNominee[n.ID]
		var pct float64
		if sum > 0 {
			pct = float64(count) / float64(sum) * 100
		}
		counts = append(counts, NomineeCount{
			NomineeID:   n.ID,
			DisplayName: n.DisplayName,
			Count:       count,
			Percentage:  pct,
		})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].DisplayName < counts[j].DisplayName
	})

	return counts, nil
}
