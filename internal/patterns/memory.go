package patterns

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
)

// MemoryStore is an in-process Store for tests and for embedding the
// gate without a database. A single mutex serializes writes; the write
// path is a map increment, so contention is negligible next to the
// classification work around it.
type MemoryStore struct {
	mu       sync.Mutex
	patterns map[patternKey]*model.Pattern
}

type patternKey struct {
	typ   model.PatternType
	value string
}

var _ Store = (*MemoryStore)(nil)

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{patterns: make(map[patternKey]*model.Pattern)}
}

func (s *MemoryStore) RecordOutcome(_ context.Context, typ model.PatternType, value string, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := patternKey{typ, value}
	p, ok := s.patterns[key]
	if !ok {
		p = &model.Pattern{Type: typ, Value: value}
		s.patterns[key] = p
	}
	if success {
		p.SuccessCount++
	} else {
		p.FailCount++
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) ConfidenceOf(_ context.Context, typ model.PatternType, value string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.patterns[patternKey{typ, value}]; ok {
		return p.Confidence(), nil
	}
	return model.Pattern{}.Confidence(), nil
}

func (s *MemoryStore) TopPatterns(_ context.Context, typ model.PatternType, limit int) ([]model.Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	var out []model.Pattern
	for key, p := range s.patterns {
		if key.typ == typ {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].Confidence(), out[j].Confidence()
		if ci != cj {
			return ci > cj
		}
		if out[i].SuccessCount != out[j].SuccessCount {
			return out[i].SuccessCount > out[j].SuccessCount
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
