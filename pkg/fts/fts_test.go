package fts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMatchExprDropsStopWords(t *testing.T) {
	expr, err := BuildMatchExpr("the dog in the park")
	require.NoError(t, err)
	require.Equal(t, "'dog' | 'park'", expr)
}

func TestBuildMatchExprFallsBackWhenAllStopWords(t *testing.T) {
	expr, err := BuildMatchExpr("the of and")
	require.NoError(t, err)
	require.Equal(t, "'the' | 'of' | 'and'", expr)
}

func TestBuildMatchExprRejectsEmptyQuery(t *testing.T) {
	_, err := BuildMatchExpr("   ")
	require.Error(t, err)
}

func TestNormalizePagingAppliesDefaultsAndBounds(t *testing.T) {
	limit, offset := normalizePaging(0, -5)
	require.Equal(t, 50, limit)
	require.Equal(t, 0, offset)

	limit, offset = normalizePaging(500, 10)
	require.Equal(t, 50, limit)
	require.Equal(t, 10, offset)

	limit, offset = normalizePaging(20, 5)
	require.Equal(t, 20, limit)
	require.Equal(t, 5, offset)
}
