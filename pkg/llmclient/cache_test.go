package llmclient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractCacheReturnsSameResultOnRepeatedReply(t *testing.T) {
	c := NewExtractCache()
	reply := `{"description":"a dog","tags":["dog"]}`

	var first tagResult
	require.NoError(t, c.ExtractJSON(reply, &first))

	var second tagResult
	require.NoError(t, c.ExtractJSON(reply, &second))

	require.Equal(t, first, second)
}

func TestExtractCachePropagatesErrors(t *testing.T) {
	c := NewExtractCache()
	var out tagResult
	require.Error(t, c.ExtractJSON("no json at all", &out))
}
