package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCCSSearchesLocalAndRemoteIndices(t *testing.T) {
	west := newFakeCluster(t, "west_ccs", movies()...)
	east := newFakeCluster(t, "east_ccs")
	useClusters(t, west, east)

	out := &syncBuffer{}
	require.NoError(t, runCommand(t, out, "ccs"))

	assert.Contains(t, out.String(), "*** West CCS ***\n")
	assert.Contains(t, out.String(), "Back to the Future")

	reqs := west.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/west_ccs,east_remote:east_ccs/_search", reqs[0].Path)
	assert.JSONEq(t, `{"size":10,"query":{"range":{"release_date":{"gte":1985}}}}`, string(reqs[0].Body))
	assert.Empty(t, east.Requests(), "cross-cluster search goes through West only")
}

func TestRangeValue(t *testing.T) {
	assert.Equal(t, int64(1985), rangeValue("1985"))
	assert.Equal(t, 1.5, rangeValue("1.5"))
	assert.Equal(t, "now-10y", rangeValue("now-10y"))
}
