// Package catalog resolves scribed course patterns against an
// institution's course catalog. Disciplines and catalog numbers may carry
// the wildcard marker "@"; catalog numbers may also be a half-open numeric
// range "lo:hi". Each institution's catalog is loaded at most once per run
// and kept in an LRU cache.
package catalog

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dgw-tools/coursemapper/internal/storage"
	"github.com/dgw-tools/coursemapper/internal/types"
)

// Wildcard is the scribe wildcard marker.
const Wildcard = "@"

// institutionCacheSize bounds the per-institution catalog cache. CUNY has
// ~25 institutions; the bound only matters for pathological inputs.
const institutionCacheSize = 64

// Cache wraps a CourseSource with per-institution caching and pattern
// expansion.
type Cache struct {
	src   storage.CourseSource
	cache *lru.Cache[string, []types.CatalogCourse]
}

// New builds a cache over the source.
func New(src storage.CourseSource) (*Cache, error) {
	c, err := lru.New[string, []types.CatalogCourse](institutionCacheSize)
	if err != nil {
		return nil, err
	}
	return &Cache{src: src, cache: c}, nil
}

// Expand returns all catalog courses matching the discipline and
// catalog-number patterns, in stable (course id, offer number) order.
func (c *Cache) Expand(ctx context.Context, institution, discipline, catalogNumber string) ([]types.CatalogCourse, error) {
	courses, err := c.coursesFor(ctx, institution)
	if err != nil {
		return nil, err
	}
	matchDisc, err := compilePattern(discipline)
	if err != nil {
		return nil, fmt.Errorf("discipline pattern %q: %w", discipline, err)
	}
	matchNum, err := compileNumberPattern(catalogNumber)
	if err != nil {
		return nil, fmt.Errorf("catalog number pattern %q: %w", catalogNumber, err)
	}
	var out []types.CatalogCourse
	for _, course := range courses {
		if matchDisc(course.Discipline) && matchNum(course.CatalogNumber) {
			out = append(out, course)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CourseID != out[j].CourseID {
			return out[i].CourseID < out[j].CourseID
		}
		return out[i].OfferNbr < out[j].OfferNbr
	})
	return out, nil
}

func (c *Cache) coursesFor(ctx context.Context, institution string) ([]types.CatalogCourse, error) {
	if courses, ok := c.cache.Get(institution); ok {
		return courses, nil
	}
	courses, err := c.src.CoursesFor(ctx, institution)
	if err != nil {
		return nil, fmt.Errorf("load catalog for %s: %w", institution, err)
	}
	c.cache.Add(institution, courses)
	return courses, nil
}

// compilePattern turns a scribe pattern into a case-insensitive matcher.
// "@" matches any run of characters.
func compilePattern(pattern string) (func(string) bool, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || pattern == Wildcard {
		return func(string) bool { return true }, nil
	}
	if !strings.Contains(pattern, Wildcard) {
		want := strings.ToUpper(pattern)
		return func(s string) bool { return strings.ToUpper(strings.TrimSpace(s)) == want }, nil
	}
	expr := "(?i)^" + strings.Join(mapQuote(strings.Split(pattern, Wildcard)), ".*") + "$"
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return func(s string) bool { return re.MatchString(strings.TrimSpace(s)) }, nil
}

func mapQuote(parts []string) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = regexp.QuoteMeta(p)
	}
	return out
}

// compileNumberPattern handles catalog numbers: wildcards as above, plus
// "lo:hi" ranges, matched half-open [lo, hi) on the number's numeric
// prefix.
func compileNumberPattern(pattern string) (func(string) bool, error) {
	pattern = strings.TrimSpace(pattern)
	if lo, hi, ok := strings.Cut(pattern, ":"); ok {
		loN, err1 := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		hiN, err2 := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("range bounds %q:%q are not numeric", lo, hi)
		}
		return func(s string) bool {
			n, ok := numericPrefix(s)
			return ok && n >= loN && n < hiN
		}, nil
	}
	return compilePattern(pattern)
}

// numericPrefix parses the leading numeric run of a catalog number
// ("101", "101.5", "101H" all yield 101-ish values).
func numericPrefix(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	seenDot := false
	for end < len(s) {
		ch := s[end]
		if ch >= '0' && ch <= '9' {
			end++
			continue
		}
		if ch == '.' && !seenDot {
			seenDot = true
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
