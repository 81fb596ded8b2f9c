package internal

import (
	"context"
	"encoding/json"

	"github.com/dmitrymomot/tasks/pkg/job"
)

// Query carries the caller's window. Nil means "not given".
type Query struct {
	Skip  *int
	Limit *int
}

// Paginate is a page size policy. Default fills a missing limit and Max caps
// any limit; zero disables either rule.
type Paginate struct {
	Default int `yaml:"default"`
	Max     int `yaml:"max"`
}

// FindParams selects a bucket of one queue and a window over it.
type FindParams struct {
	// Paginate overrides the service policy for this call.
	Paginate *Paginate
	Type     string
	Queue    string
	Query    Query
	// NoPaginate returns the bare data array and ignores any page size policy.
	NoPaginate bool
}

// Page is the result of a find.
//
// Total is counted before the window is read, without isolation: jobs can
// change buckets in between, so Total is a point-in-time estimate and may
// disagree with Data.
type Page[T any] struct {
	Data      []T
	Total     int
	Limit     int
	Skip      int
	Paginated bool
}

type pageEnvelope[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Limit int `json:"limit"`
	Skip  int `json:"skip"`
}

// MarshalJSON renders {total, limit, skip, data}, or just the data array when
// the page is unpaginated.
func (p Page[T]) MarshalJSON() ([]byte, error) {
	data := p.Data
	if data == nil {
		data = []T{}
	}
	if !p.Paginated {
		return json.Marshal(data)
	}
	return json.Marshal(pageEnvelope[T]{Total: p.Total, Limit: p.Limit, Skip: p.Skip, Data: data})
}

// Find lists the serialized jobs of one bucket.
func (s *Service) Find(ctx context.Context, p FindParams) (Page[Job], error) {
	raw, err := s.FindRaw(ctx, p)
	if err != nil {
		return Page[Job]{}, err
	}
	return Page[Job]{
		Data:      serializeAll(raw.Data),
		Total:     raw.Total,
		Limit:     raw.Limit,
		Skip:      raw.Skip,
		Paginated: raw.Paginated,
	}, nil
}

// FindRaw is Find for trusted callers.
func (s *Service) FindRaw(ctx context.Context, p FindParams) (Page[*job.Job], error) {
	if p.Type == "" {
		return Page[*job.Job]{}, invalidType(p.Type)
	}
	b, err := job.ParseBucket(p.Type)
	if err != nil {
		return Page[*job.Job]{}, invalidType(p.Type)
	}

	skip, limit, err := s.window(p)
	if err != nil {
		return Page[*job.Job]{}, err
	}

	h, err := s.registry.Resolve(p.Queue)
	if err != nil {
		return Page[*job.Job]{}, err
	}

	total, err := h.Count(ctx, b)
	if err != nil {
		return Page[*job.Job]{}, classify(err)
	}

	page := Page[*job.Job]{Total: total, Skip: skip, Paginated: !p.NoPaginate}
	if limit != nil {
		page.Limit = *limit
	} else {
		page.Limit = max(total-skip, 0)
	}

	if page.Limit == 0 {
		page.Data = []*job.Job{}
		return page, nil
	}

	jobs, err := h.Range(ctx, b, skip, skip+page.Limit)
	if err != nil {
		return Page[*job.Job]{}, classify(err)
	}
	page.Data = jobs
	return page, nil
}

// window resolves skip and limit. A nil limit means "rest of the bucket".
// The page size policy applies only when the call gave no pagination of its own.
func (s *Service) window(p FindParams) (int, *int, error) {
	skip := 0
	if p.Query.Skip != nil {
		if *p.Query.Skip < 0 {
			return 0, nil, fieldError("skip", "must be a non-negative integer")
		}
		skip = *p.Query.Skip
	}

	var limit *int
	if p.Query.Limit != nil {
		if *p.Query.Limit < 0 {
			return 0, nil, fieldError("limit", "must be a non-negative integer")
		}
		n := *p.Query.Limit
		limit = &n
	}

	policy := s.cfg.paginate
	if p.Paginate != nil {
		policy = p.Paginate
	}
	if p.NoPaginate || policy == nil {
		return skip, limit, nil
	}

	if limit == nil && policy.Default > 0 {
		n := policy.Default
		limit = &n
	}
	if limit != nil && policy.Max > 0 && *limit > policy.Max {
		n := policy.Max
		limit = &n
	}
	return skip, limit, nil
}
