package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountEmptyString(t *testing.T) {
	require.Equal(t, 0, Count(""))
}

func TestCountIsPositiveForText(t *testing.T) {
	require.Greater(t, Count("hello world, this is a test"), 0)
}

func TestCountAllSumsAcrossStrings(t *testing.T) {
	total := CountAll("hello", "world")
	require.Equal(t, Count("hello")+Count("world"), total)
}

func TestTruncateToTokensZeroBudget(t *testing.T) {
	require.Equal(t, "", TruncateToTokens("hello world", 0))
}

func TestTruncateToTokensUnderBudgetUnchanged(t *testing.T) {
	text := "short text"
	require.Equal(t, text, TruncateToTokens(text, 1000))
}

func TestTruncateToTokensOverBudgetShrinks(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	truncated := TruncateToTokens(text, 3)
	require.Less(t, Count(truncated), Count(text))
}
