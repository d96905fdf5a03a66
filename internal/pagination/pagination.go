// Package pagination resolves the pagination object of a list request
// into exactly one concrete strategy: offset-based or keyset
// (cursor-based). Detection favors an explicit "type" key; otherwise
// the request shape decides, and an empty request falls back to a
// keyset plan with the default limit.
package pagination

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/fieldgate/fieldgate/internal/fielderr"
)

// DefaultLimit is the page size applied when a request names none.
const DefaultLimit = 20

// Strategy names one of the two supported pagination strategies.
type Strategy string

const (
	StrategyOffset Strategy = "offset"
	StrategyKeyset Strategy = "keyset"
)

// Plan is the resolved pagination strategy for one list request. The
// set is closed: a plan is either an Offset or a Cursor.
type Plan interface {
	Strategy() Strategy
	// PageLimit returns the normalized page size.
	PageLimit() int
	isPlan()
}

// Offset pages through a stable ordering by skipping a fixed number of
// records.
type Offset struct {
	Limit  int
	Offset int
	Count  bool
}

func (Offset) Strategy() Strategy { return StrategyOffset }
func (o Offset) PageLimit() int   { return o.Limit }
func (Offset) isPlan()            {}

// Cursor pages relative to an opaque cursor bound. Empty After and
// Before mean the page is unbounded on that side.
type Cursor struct {
	Limit  int
	After  string
	Before string
	Count  bool
}

func (Cursor) Strategy() Strategy { return StrategyKeyset }
func (c Cursor) PageLimit() int   { return c.Limit }
func (Cursor) isPlan()            {}

// Resolve picks and normalizes the strategy for a pagination request
// object. Precedence:
//
//  1. an explicit "type" key decides; any value other than "offset"
//     or "keyset" is invalid,
//  2. an "offset" key without "after"/"before" auto-detects offset,
//  3. an "after" or "before" key auto-detects keyset,
//  4. otherwise keyset with the default limit and no bound.
//
// A nil request is valid and resolves per rule 4. All parameters are
// validated strictly: the first bad value aborts with InvalidPagination.
func Resolve(req map[string]any) (Plan, error) {
	if raw, ok := req["type"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, fielderr.InvalidPagination(fmt.Sprintf("type must be a string, got %T", raw))
		}
		switch Strategy(s) {
		case StrategyOffset:
			return resolveOffset(req)
		case StrategyKeyset:
			return resolveCursor(req)
		default:
			return nil, fielderr.InvalidPagination(fmt.Sprintf("unknown pagination type %q", s))
		}
	}

	_, hasOffset := req["offset"]
	_, hasAfter := req["after"]
	_, hasBefore := req["before"]
	if hasOffset && !hasAfter && !hasBefore {
		return resolveOffset(req)
	}
	return resolveCursor(req)
}

func resolveOffset(req map[string]any) (Plan, error) {
	limit, err := limitOf(req)
	if err != nil {
		return nil, err
	}
	count, err := countOf(req)
	if err != nil {
		return nil, err
	}

	offset := 0
	if raw, ok := req["offset"]; ok {
		offset, err = intParam("offset", raw, 0)
		if err != nil {
			return nil, err
		}
	} else if raw, ok := req["page"]; ok {
		// Pages are 1-based; page 1 starts at offset 0.
		page, err := intParam("page", raw, 1)
		if err != nil {
			return nil, err
		}
		offset = (page - 1) * limit
	}
	return Offset{Limit: limit, Offset: offset, Count: count}, nil
}

func resolveCursor(req map[string]any) (Plan, error) {
	limit, err := limitOf(req)
	if err != nil {
		return nil, err
	}
	count, err := countOf(req)
	if err != nil {
		return nil, err
	}

	plan := Cursor{Limit: limit, Count: count}
	if raw, ok := req["after"]; ok {
		plan.After, err = stringParam("after", raw)
		if err != nil {
			return nil, err
		}
	}
	if raw, ok := req["before"]; ok {
		plan.Before, err = stringParam("before", raw)
		if err != nil {
			return nil, err
		}
	}
	return plan, nil
}

func limitOf(req map[string]any) (int, error) {
	raw, ok := req["limit"]
	if !ok {
		return DefaultLimit, nil
	}
	return intParam("limit", raw, 1)
}

func countOf(req map[string]any) (bool, error) {
	raw, ok := req["count"]
	if !ok {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fielderr.InvalidPagination(fmt.Sprintf("count must be a boolean, got %T", raw))
	}
	return b, nil
}

func stringParam(name string, raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fielderr.InvalidPagination(fmt.Sprintf("%s must be a string cursor, got %T", name, raw))
	}
	return s, nil
}

// intParam coerces the numeric representations a JSON decoder may
// produce. Fractional and sub-minimum values are invalid.
func intParam(name string, raw any, min int) (int, error) {
	var n int
	switch v := raw.(type) {
	case int:
		n = v
	case int32:
		n = int(v)
	case int64:
		n = int(v)
	case float64:
		if v != math.Trunc(v) {
			return 0, fielderr.InvalidPagination(fmt.Sprintf("%s must be an integer, got %v", name, v))
		}
		n = int(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, fielderr.InvalidPagination(fmt.Sprintf("%s must be an integer, got %q", name, v.String()))
		}
		n = int(i)
	default:
		return 0, fielderr.InvalidPagination(fmt.Sprintf("%s must be an integer, got %T", name, raw))
	}
	if n < min {
		return 0, fielderr.InvalidPagination(fmt.Sprintf("%s must be at least %d, got %d", name, min, n))
	}
	return n, nil
}
