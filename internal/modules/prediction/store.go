package prediction

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Artifact file layout: 4 magic bytes, 1 format version byte, msgpack payload.
var artifactMagic = []byte("CDM1")

const artifactFormatVersion = 1

const artifactExtension = ".model"

// ArtifactMetadata describes how and when an artifact was trained
type ArtifactMetadata struct {
	TrainedAt       time.Time `msgpack:"trained_at" json:"trained_at"`
	HorizonDays     int       `msgpack:"horizon_days" json:"horizon_days"`
	MAE             float64   `msgpack:"mae" json:"mae"`
	RMSE            float64   `msgpack:"rmse" json:"rmse"`
	PipelineVersion int       `msgpack:"pipeline_version" json:"pipeline_version"`
}

// Artifact is the self-describing package persisted per asset: the fitted
// scaler and both regressors plus the feature column order they were
// trained against. Scaler, models, and column order are co-versioned by
// construction; they can never drift apart on disk.
type Artifact struct {
	FeatureColumns []string         `msgpack:"feature_columns"`
	Ensemble       *Ensemble        `msgpack:"ensemble"`
	Metadata       ArtifactMetadata `msgpack:"metadata"`
}

// Compatible reports whether the artifact matches the given pipeline
// version and column order
func (a *Artifact) Compatible(version int, columns []string) bool {
	if a.Metadata.PipelineVersion != version {
		return false
	}
	if len(a.FeatureColumns) != len(columns) {
		return false
	}
	for i, col := range a.FeatureColumns {
		if col != columns[i] {
			return false
		}
	}
	return true
}

// StoredModel is a listing entry for a persisted artifact
type StoredModel struct {
	AssetID  string           `json:"asset_id"`
	Metadata ArtifactMetadata `json:"metadata"`
}

// Store persists ensemble artifacts, one file per asset id.
// Writes are atomic (temp file + rename); corrupted or incompatible reads
// behave as absent, never as errors.
type Store struct {
	dir string
	log zerolog.Logger
}

// NewStore creates a model store rooted at dir
func NewStore(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create model directory: %w", err)
	}
	return &Store{
		dir: dir,
		log: log.With().Str("component", "model_store").Logger(),
	}, nil
}

// Save writes an artifact atomically
func (s *Store) Save(assetID string, artifact *Artifact) error {
	payload, err := msgpack.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("%w: failed to encode artifact: %v", ErrArtifactWrite, err)
	}

	var buf bytes.Buffer
	buf.Write(artifactMagic)
	buf.WriteByte(artifactFormatVersion)
	buf.Write(payload)

	path := s.path(assetID)
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}

	s.log.Debug().Str("asset", assetID).Int("bytes", buf.Len()).Msg("Artifact saved")
	return nil
}

// Load reads the artifact for an asset. Returns ok=false (with nil error)
// when the artifact is absent, corrupt, or carries an unknown format
// version - all three trigger a retrain upstream.
func (s *Store) Load(assetID string) (*Artifact, bool, error) {
	data, err := os.ReadFile(s.path(assetID))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read artifact for %s: %w", assetID, err)
	}

	if len(data) < len(artifactMagic)+1 || !bytes.Equal(data[:len(artifactMagic)], artifactMagic) {
		s.log.Warn().Str("asset", assetID).Msg("Artifact has invalid magic bytes, treating as absent")
		return nil, false, nil
	}
	if data[len(artifactMagic)] != artifactFormatVersion {
		s.log.Warn().
			Str("asset", assetID).
			Uint8("version", data[len(artifactMagic)]).
			Msg("Artifact format version mismatch, treating as absent")
		return nil, false, nil
	}

	var artifact Artifact
	if err := msgpack.Unmarshal(data[len(artifactMagic)+1:], &artifact); err != nil {
		s.log.Warn().Err(err).Str("asset", assetID).Msg("Artifact decode failed, treating as absent")
		return nil, false, nil
	}
	if artifact.Ensemble == nil || artifact.Ensemble.Scaler == nil {
		s.log.Warn().Str("asset", assetID).Msg("Artifact payload incomplete, treating as absent")
		return nil, false, nil
	}

	return &artifact, true, nil
}

// Delete removes the artifact for an asset. Missing files are not an error.
func (s *Store) Delete(assetID string) error {
	err := os.Remove(s.path(assetID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete artifact for %s: %w", assetID, err)
	}
	return nil
}

// List returns metadata for every readable artifact in the store
func (s *Store) List() ([]StoredModel, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list model directory: %w", err)
	}

	models := make([]StoredModel, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, artifactExtension) {
			continue
		}
		assetID := strings.TrimSuffix(name, artifactExtension)

		artifact, ok, err := s.Load(assetID)
		if err != nil || !ok {
			continue
		}
		models = append(models, StoredModel{AssetID: assetID, Metadata: artifact.Metadata})
	}
	return models, nil
}

// path maps an asset id to its artifact file, flattening any path separators
func (s *Store) path(assetID string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(assetID)
	return filepath.Join(s.dir, safe+artifactExtension)
}
