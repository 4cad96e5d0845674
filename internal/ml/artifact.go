package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// artifactVersion guards against loading artifacts written by an older
// incompatible layout. Bump when the serialized forest shape changes.
const artifactVersion = 1

// ErrArtifactIncompatible is returned when a stored artifact cannot serve
// the current feature schema. Callers recover by retraining, never by
// crashing.
var ErrArtifactIncompatible = errors.New("ml: model artifact is incompatible")

// ArtifactStore persists the single named model blob between runs.
// There is no versioning beyond "current blob": each training run
// overwrites it.
type ArtifactStore interface {
	// Save overwrites the current artifact.
	Save(ctx context.Context, data []byte) error

	// Load returns the current artifact, or shared.ErrNotFound-compatible
	// error when none exists.
	Load(ctx context.Context) ([]byte, error)
}

// Artifact is the serialized form of a fitted forest plus the feature schema
// it was trained against.
type Artifact struct {
	Version      int      `json:"version"`
	FeatureNames []string `json:"feature_names"`
	Forest       *Forest  `json:"forest"`
}

// EncodeArtifact serializes a fitted forest with its feature schema.
func EncodeArtifact(forest *Forest, featureNames []string) ([]byte, error) {
	if len(forest.Trees) == 0 {
		return nil, ErrNotFitted
	}
	a := Artifact{
		Version:      artifactVersion,
		FeatureNames: featureNames,
		Forest:       forest,
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("ml: encode artifact: %w", err)
	}
	return data, nil
}

// DecodeArtifact deserializes an artifact and validates it against the
// expected feature schema. A stale or foreign artifact returns
// ErrArtifactIncompatible so the caller can fail closed by retraining.
func DecodeArtifact(data []byte, expectedFeatures []string) (*Forest, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactIncompatible, err)
	}
	if a.Version != artifactVersion || a.Forest == nil || len(a.Forest.Trees) == 0 {
		return nil, ErrArtifactIncompatible
	}
	if len(a.FeatureNames) != len(expectedFeatures) {
		return nil, ErrArtifactIncompatible
	}
	for i, name := range expectedFeatures {
		if a.FeatureNames[i] != name {
			return nil, ErrArtifactIncompatible
		}
	}
	if a.Forest.NumColumns != len(expectedFeatures) {
		return nil, ErrArtifactIncompatible
	}
	return a.Forest, nil
}
