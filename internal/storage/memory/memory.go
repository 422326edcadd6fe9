// Package memory is an in-memory storage backend. Tests use it to stand in
// for the database without touching SQL.
package memory

import (
	"context"

	"github.com/dgw-tools/coursemapper/internal/storage"
	"github.com/dgw-tools/coursemapper/internal/types"
)

// Store holds blocks, courses, and plan seeds in maps and slices.
type Store struct {
	blocks  map[types.BlockKey]*types.Block
	courses map[string][]types.CatalogCourse
	plans   []*types.PlanSeed
}

var (
	_ storage.Store        = (*Store)(nil)
	_ storage.CourseSource = (*Store)(nil)
	_ storage.PlanSource   = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{
		blocks:  map[types.BlockKey]*types.Block{},
		courses: map[string][]types.CatalogCourse{},
	}
}

// AddBlock registers a block under its identity.
func (s *Store) AddBlock(b *types.Block) *Store {
	s.blocks[b.Key()] = b
	return s
}

// AddCourse appends a catalog course for its institution.
func (s *Store) AddCourse(c types.CatalogCourse) *Store {
	s.courses[c.Institution] = append(s.courses[c.Institution], c)
	return s
}

// AddPlan appends an active-plan seed.
func (s *Store) AddPlan(p *types.PlanSeed) *Store {
	s.plans = append(s.plans, p)
	return s
}

// FetchByIdentity implements storage.Store.
func (s *Store) FetchByIdentity(_ context.Context, key types.BlockKey) (*types.Block, error) {
	b, ok := s.blocks[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return b, nil
}

// FindActive implements storage.Store. Every registered block counts as
// active; tests that need inactive blocks simply leave them out.
func (s *Store) FindActive(_ context.Context, institution, blockType, blockValue string) ([]*types.Block, error) {
	var out []*types.Block
	for _, b := range s.blocks {
		if b.Institution == institution && b.BlockType == blockType && b.BlockValue == blockValue {
			out = append(out, b)
		}
	}
	return out, nil
}

// FindCurrent implements storage.Store.
func (s *Store) FindCurrent(_ context.Context, key types.BlockKey) (*types.Block, error) {
	b, ok := s.blocks[key]
	if !ok || !b.IsCurrent() {
		return nil, nil
	}
	return b, nil
}

// CoursesFor implements storage.CourseSource.
func (s *Store) CoursesFor(_ context.Context, institution string) ([]types.CatalogCourse, error) {
	return s.courses[institution], nil
}

// ActivePlans implements storage.PlanSource.
func (s *Store) ActivePlans(context.Context) ([]*types.PlanSeed, error) {
	return s.plans, nil
}
