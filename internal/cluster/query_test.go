package cluster

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortedMatchAll(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(SortedMatchAll("release_date", "asc", 25))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"size": 25,
		"query": {"match_all": {}},
		"sort": [{"release_date": {"order": "asc"}}]
	}`, string(data))
}

func TestSearchRequestValidate(t *testing.T) {
	t.Parallel()

	var nilReq *SearchRequest
	require.Error(t, nilReq.Validate())
	require.Error(t, (&SearchRequest{}).Validate())
	require.Error(t, (&SearchRequest{Indices: []string{"west_ccr", " "}}).Validate())
	require.NoError(t, (&SearchRequest{Indices: []string{"west_ccr"}}).Validate())
}

func TestSearchRequestEncodeDefaultsToMatchAll(t *testing.T) {
	t.Parallel()

	data, err := (&SearchRequest{Indices: []string{"west_ccr"}}).encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":{"match_all":{}}}`, string(data))
}

func TestDecodeSearchResponse(t *testing.T) {
	t.Parallel()

	t.Run("object total", func(t *testing.T) {
		resp, err := decodeSearchResponse([]byte(`{
			"took": 4,
			"timed_out": false,
			"hits": {
				"total": {"value": 1, "relation": "eq"},
				"hits": [{"_index": "east_ccr", "_id": "a", "_score": null, "_source": {"title": "Alien"}, "sort": [1979]}]
			}
		}`))
		require.NoError(t, err)
		assert.Equal(t, 4, resp.Took)
		assert.Equal(t, 1, resp.TotalHits)
		require.Len(t, resp.Hits, 1)
		assert.Equal(t, "east_ccr", resp.Hits[0].Index)
		assert.JSONEq(t, `{"title":"Alien"}`, string(resp.Hits[0].Source))
		assert.Equal(t, []any{float64(1979)}, resp.Hits[0].Sort)
	})

	t.Run("legacy numeric total", func(t *testing.T) {
		resp, err := decodeSearchResponse([]byte(`{"took": 1, "hits": {"total": 7, "hits": []}}`))
		require.NoError(t, err)
		assert.Equal(t, 7, resp.TotalHits)
		assert.Empty(t, resp.Hits)
	})

	t.Run("empty index yields empty hits", func(t *testing.T) {
		resp, err := decodeSearchResponse([]byte(`{"took": 1, "hits": {"total": {"value": 0}}}`))
		require.NoError(t, err)
		assert.NotNil(t, resp.Hits)
		assert.Empty(t, resp.Hits)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := decodeSearchResponse([]byte(`<html>`))
		require.Error(t, err)
	})
}
