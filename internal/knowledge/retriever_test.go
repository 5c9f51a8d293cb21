package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieveMatchesReturnPolicy(t *testing.T) {
	r := NewKeywordRetriever()

	got, err := r.Retrieve(context.Background(), "Can I get a refund for my laptop?")
	require.NoError(t, err)
	assert.Contains(t, got, "Return policy")
	assert.Contains(t, got, "30 days")
}

func TestRetrieveNoMatch(t *testing.T) {
	r := NewKeywordRetriever()

	got, err := r.Retrieve(context.Background(), "xylophone zeppelin")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieveEmptyQuery(t *testing.T) {
	r := NewKeywordRetriever()

	got, err := r.Retrieve(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieveTopNBound(t *testing.T) {
	docs := []byte(`documents:
  - title: A
    keywords: [ship]
    body: a
  - title: B
    keywords: [ship]
    body: b
  - title: C
    keywords: [ship]
    body: c
`)
	r, err := NewKeywordRetrieverFromYAML(docs, WithTopN(2))
	require.NoError(t, err)

	got, err := r.Retrieve(context.Background(), "ship it")
	require.NoError(t, err)
	assert.Contains(t, got, "A")
	assert.Contains(t, got, "B")
	assert.NotContains(t, got, "C:")
}

func TestRetrieveRanksByOverlap(t *testing.T) {
	docs := []byte(`documents:
  - title: Weak
    keywords: [shipping]
    body: weak match
  - title: Strong
    keywords: [shipping, express, tracking]
    body: strong match
`)
	r, err := NewKeywordRetrieverFromYAML(docs, WithTopN(1))
	require.NoError(t, err)

	got, err := r.Retrieve(context.Background(), "express shipping with tracking")
	require.NoError(t, err)
	assert.Contains(t, got, "Strong")
}

func TestRetrieveCancelledContext(t *testing.T) {
	r := NewKeywordRetriever()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Retrieve(ctx, "refund")
	require.Error(t, err)
}

func TestFromYAMLRejectsBadInput(t *testing.T) {
	_, err := NewKeywordRetrieverFromYAML([]byte("documents: ["))
	require.Error(t, err)
}
