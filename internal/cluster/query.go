package cluster

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ca-srg/ccrcheck/internal/types"
)

// SearchRequest is a raw query body aimed at one or more indices. Indices may
// use the remote:index form for cross-cluster search.
type SearchRequest struct {
	Indices []string
	Body    map[string]any
}

// Hit is a single document returned by a search.
type Hit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Score  float64         `json:"_score"`
	Source json.RawMessage `json:"_source"`
	Sort   []any           `json:"sort,omitempty"`
}

// SearchResponse provides a backend neutral view over a search response.
type SearchResponse struct {
	Took      int   `json:"took"`
	TimedOut  bool  `json:"timed_out"`
	TotalHits int   `json:"total_hits"`
	Hits      []Hit `json:"hits"`
}

// Validate checks the request before it is sent.
func (r *SearchRequest) Validate() error {
	if r == nil {
		return NewSearchError(types.ErrorTypeValidation, "search request cannot be nil")
	}
	if len(r.Indices) == 0 {
		return NewSearchError(types.ErrorTypeValidation, "at least one index is required")
	}
	for _, idx := range r.Indices {
		if strings.TrimSpace(idx) == "" {
			return NewSearchError(types.ErrorTypeValidation, "index name cannot be empty")
		}
	}
	return nil
}

func (r *SearchRequest) encode() ([]byte, error) {
	body := r.Body
	if body == nil {
		body = map[string]any{"query": map[string]any{"match_all": map[string]any{}}}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, NewSearchError(types.ErrorTypeValidation, fmt.Sprintf("failed to marshal search body: %v", err))
	}
	return data, nil
}

// SortedMatchAll returns every document ordered by field.
func SortedMatchAll(field, order string, size int) map[string]any {
	return map[string]any{
		"size": size,
		"query": map[string]any{
			"match_all": map[string]any{},
		},
		"sort": []any{
			map[string]any{
				field: map[string]any{"order": order},
			},
		},
	}
}

// RangeGTE matches documents whose field is greater than or equal to gte.
func RangeGTE(field string, gte any, size int) map[string]any {
	return map[string]any{
		"size": size,
		"query": map[string]any{
			"range": map[string]any{
				field: map[string]any{"gte": gte},
			},
		},
	}
}

// rawSearchResponse mirrors the engine JSON. hits.total is an object on 7.x and
// later but a bare number on older clusters.
type rawSearchResponse struct {
	Took     int  `json:"took"`
	TimedOut bool `json:"timed_out"`
	Hits     struct {
		Total json.RawMessage `json:"total"`
		Hits  []Hit           `json:"hits"`
	} `json:"hits"`
}

func decodeSearchResponse(data []byte) (*SearchResponse, error) {
	var raw rawSearchResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewSearchError(types.ErrorTypeResponse, fmt.Sprintf("failed to decode search response: %v", err))
	}

	resp := &SearchResponse{
		Took:     raw.Took,
		TimedOut: raw.TimedOut,
		Hits:     raw.Hits.Hits,
	}
	if resp.Hits == nil {
		resp.Hits = []Hit{}
	}

	if len(raw.Hits.Total) > 0 {
		var total struct {
			Value int `json:"value"`
		}
		if err := json.Unmarshal(raw.Hits.Total, &total); err == nil {
			resp.TotalHits = total.Value
		} else {
			var n int
			if err := json.Unmarshal(raw.Hits.Total, &n); err == nil {
				resp.TotalHits = n
			}
		}
	}

	return resp, nil
}
