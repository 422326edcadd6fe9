// Package storage defines the interfaces the course mapper consumes:
// the block store, the course catalog, the active-plan enumerator, and the
// grammar parser. Backends live in subpackages (mysql, sqlite, memory).
package storage

import (
	"context"
	"errors"

	"github.com/dgw-tools/coursemapper/internal/types"
)

// ErrNotFound is returned when a block identity has no row at all.
var ErrNotFound = errors.New("block not found")

// ErrNotParsed is returned by the null Parser: the block's tree was absent
// and no grammar parser is wired into the run.
var ErrNotParsed = errors.New("block has not been parsed")

// Store fetches requirement blocks.
type Store interface {
	// FetchByIdentity returns the block for an exact identity, tree included.
	FetchByIdentity(ctx context.Context, key types.BlockKey) (*types.Block, error)

	// FindActive returns all active blocks matching institution, block type,
	// and block value. Zero and multiple matches are normal; the reference
	// resolver deals with both.
	FindActive(ctx context.Context, institution, blockType, blockValue string) ([]*types.Block, error)

	// FindCurrent returns the current, non-expired version of a block, or
	// nil when there is none. Used by copy-rules resolution.
	FindCurrent(ctx context.Context, key types.BlockKey) (*types.Block, error)
}

// CourseSource supplies an institution's full course catalog. The catalog
// cache loads each institution at most once per run and does wildcard and
// range expansion on top.
type CourseSource interface {
	CoursesFor(ctx context.Context, institution string) ([]types.CatalogCourse, error)
}

// PlanSource enumerates the recently-active academic plans that seed
// top-level interpretation.
type PlanSource interface {
	ActivePlans(ctx context.Context) ([]*types.PlanSeed, error)
}

// Parser is the external grammar parser, called lazily when a cached tree
// is absent or empty.
type Parser interface {
	Parse(ctx context.Context, institution, requirementID, periodStart, periodStop string) (*types.ParseTree, error)
}

// NullParser satisfies Parser by refusing: runs without a wired grammar
// parser log un-parsed blocks as failures instead of parsing them.
type NullParser struct{}

// Parse always returns ErrNotParsed.
func (NullParser) Parse(context.Context, string, string, string, string) (*types.ParseTree, error) {
	return nil, ErrNotParsed
}
