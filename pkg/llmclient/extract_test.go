package llmclient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type tagResult struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func TestExtractJSONDirectParse(t *testing.T) {
	var out tagResult
	err := ExtractJSON(`{"description":"a dog","tags":["dog","pet"]}`, &out)
	require.NoError(t, err)
	require.Equal(t, "a dog", out.Description)
	require.Equal(t, []string{"dog", "pet"}, out.Tags)
}

func TestExtractJSONFromSurroundingProse(t *testing.T) {
	reply := "Sure, here's the analysis:\n```json\n{\"description\":\"a cat\",\"tags\":[\"cat\"]}\n```\nLet me know if you need anything else."
	var out tagResult
	err := ExtractJSON(reply, &out)
	require.NoError(t, err)
	require.Equal(t, "a cat", out.Description)
}

func TestExtractJSONHonorsStringLiteralBraces(t *testing.T) {
	reply := `noise {"description":"a { weird } sentence", "tags":["x"]} trailing`
	var out tagResult
	err := ExtractJSON(reply, &out)
	require.NoError(t, err)
	require.Equal(t, "a { weird } sentence", out.Description)
}

func TestExtractJSONNoObjectFails(t *testing.T) {
	var out tagResult
	err := ExtractJSON("no json here at all", &out)
	require.Error(t, err)
}

func TestExtractJSONUnbalancedFails(t *testing.T) {
	var out tagResult
	err := ExtractJSON(`{"description":"a dog"`, &out)
	require.Error(t, err)
}
