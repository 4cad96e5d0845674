package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFeatures = []string{"a", "b", "c"}

func fittedForest(t *testing.T) *Forest {
	t.Helper()
	samples, labels := separableSet()
	forest := NewForest(ForestConfig{NumTrees: 5, MaxDepth: 4, Seed: 42})
	require.NoError(t, forest.Fit(samples, labels))
	return forest
}

func TestArtifact_RoundTrip(t *testing.T) {
	forest := fittedForest(t)

	data, err := EncodeArtifact(forest, testFeatures)
	require.NoError(t, err)

	decoded, err := DecodeArtifact(data, testFeatures)
	require.NoError(t, err)

	probe := []float64{0.85, 1, 0}
	want, err := forest.PredictProba(probe)
	require.NoError(t, err)
	got, err := decoded.PredictProba(probe)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEncodeArtifact_RejectsUnfitted(t *testing.T) {
	_, err := EncodeArtifact(NewForest(DefaultForestConfig()), testFeatures)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestDecodeArtifact_RejectsSchemaDrift(t *testing.T) {
	forest := fittedForest(t)
	data, err := EncodeArtifact(forest, testFeatures)
	require.NoError(t, err)

	// Different feature count.
	_, err = DecodeArtifact(data, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrArtifactIncompatible)

	// Same count, different names.
	_, err = DecodeArtifact(data, []string{"a", "b", "z"})
	assert.ErrorIs(t, err, ErrArtifactIncompatible)

	// Reordered names.
	_, err = DecodeArtifact(data, []string{"b", "a", "c"})
	assert.ErrorIs(t, err, ErrArtifactIncompatible)
}

func TestDecodeArtifact_RejectsGarbage(t *testing.T) {
	_, err := DecodeArtifact([]byte("not json"), testFeatures)
	assert.ErrorIs(t, err, ErrArtifactIncompatible)

	_, err = DecodeArtifact([]byte(`{"version":99}`), testFeatures)
	assert.ErrorIs(t, err, ErrArtifactIncompatible)
}
