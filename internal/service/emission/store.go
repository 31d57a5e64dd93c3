package emission

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"carp-service/internal/domain/emission"
	xerrors "carp-service/internal/pkg/errors"
)

// CandidateFinder returns the active factors covering a vehicle/fuel pair in
// insertion order.
type CandidateFinder interface {
	FindCandidates(ctx context.Context, vt emission.VehicleType, ft emission.FuelType) ([]emission.EmissionFactor, error)
}

// FactorStore is the full factor store contract shared by the PostgreSQL
// repository and MemoryStore.
type FactorStore interface {
	CandidateFinder
	Upsert(ctx context.Context, f *emission.EmissionFactor) error
	Deactivate(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*emission.EmissionFactor, error)
	ActiveFactorValues(ctx context.Context) ([]float64, error)
}

// MemoryStore keeps factors in insertion order. It backs tests and tooling.
type MemoryStore struct {
	mu      sync.RWMutex
	factors []emission.EmissionFactor
	nextID  int64
	now     func() time.Time
}

// NewMemoryStore panics when a seed factor is invalid.
func NewMemoryStore(seed ...emission.EmissionFactor) *MemoryStore {
	s := &MemoryStore{now: time.Now}
	for i := range seed {
		f := seed[i]
		if err := s.Upsert(context.Background(), &f); err != nil {
			panic(fmt.Sprintf("emission: invalid seed factor %d: %v", i, err))
		}
	}
	return s
}

// Upsert inserts f when its id is zero or unknown, otherwise replaces the
// stored factor and bumps its version. f is updated with the stored state.
func (s *MemoryStore) Upsert(_ context.Context, f *emission.EmissionFactor) error {
	if err := emission.ValidateProfile(f.VehicleType, f.FuelType); err != nil {
		return err
	}
	if err := emission.ValidateFactorValue(f.FactorGPerKm); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if f.ID != 0 {
		for i := range s.factors {
			if s.factors[i].ID == f.ID {
				f.Version = s.factors[i].Version + 1
				f.CreatedAt = s.factors[i].CreatedAt
				f.UpdatedAt = now
				s.factors[i] = cloneFactor(*f)
				return nil
			}
		}
	}

	if f.ID == 0 {
		s.nextID++
		f.ID = s.nextID
	} else if f.ID > s.nextID {
		s.nextID = f.ID
	}
	if f.Version == 0 {
		f.Version = 1
	}
	f.CreatedAt, f.UpdatedAt = now, now
	s.factors = append(s.factors, cloneFactor(*f))
	sort.SliceStable(s.factors, func(i, j int) bool { return s.factors[i].ID < s.factors[j].ID })
	return nil
}

func (s *MemoryStore) Deactivate(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.factors {
		if s.factors[i].ID == id {
			if s.factors[i].IsActive {
				s.factors[i].IsActive = false
				s.factors[i].Version++
				s.factors[i].UpdatedAt = s.now()
			}
			return nil
		}
	}
	return fmt.Errorf("emission factor %d: %w", id, xerrors.ErrNotFound)
}

func (s *MemoryStore) FindByID(_ context.Context, id int64) (*emission.EmissionFactor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.factors {
		if s.factors[i].ID == id {
			f := cloneFactor(s.factors[i])
			return &f, nil
		}
	}
	return nil, fmt.Errorf("emission factor %d: %w", id, xerrors.ErrNotFound)
}

func (s *MemoryStore) FindCandidates(_ context.Context, vt emission.VehicleType, ft emission.FuelType) ([]emission.EmissionFactor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []emission.EmissionFactor
	for _, f := range s.factors {
		if f.IsActive && f.Covers(vt, ft) {
			out = append(out, cloneFactor(f))
		}
	}
	return out, nil
}

func (s *MemoryStore) ActiveFactorValues(_ context.Context) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []float64
	for _, f := range s.factors {
		if f.IsActive {
			out = append(out, f.FactorGPerKm)
		}
	}
	return out, nil
}

func cloneFactor(f emission.EmissionFactor) emission.EmissionFactor {
	if f.Tags != nil {
		f.Tags = append([]string(nil), f.Tags...)
	}
	return f
}
