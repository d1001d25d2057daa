package prediction

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "cryptodeck/internal/testing"
)

func trainedArtifact(t *testing.T) *Artifact {
	t.Helper()

	pipeline := NewPipeline(10)
	frame := pipeline.Build(testingpkg.TrendSeries(150, 100, 0.3))
	require.False(t, frame.Empty())
	X, y := frame.LabeledData()

	ensemble := NewEnsemble()
	metrics, err := ensemble.Fit(X, y, 0.2)
	require.NoError(t, err)

	return &Artifact{
		FeatureColumns: pipeline.Columns(),
		Ensemble:       ensemble,
		Metadata: ArtifactMetadata{
			TrainedAt:       time.Now().UTC().Truncate(time.Second),
			HorizonDays:     210,
			MAE:             metrics.MAE,
			RMSE:            metrics.RMSE,
			PipelineVersion: pipeline.Version(),
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	artifact := trainedArtifact(t)
	require.NoError(t, store.Save("bitcoin", artifact))

	loaded, ok, err := store.Load("bitcoin")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, artifact.FeatureColumns, loaded.FeatureColumns)
	assert.Equal(t, artifact.Metadata.PipelineVersion, loaded.Metadata.PipelineVersion)
	assert.InDelta(t, artifact.Metadata.MAE, loaded.Metadata.MAE, 1e-12)

	// The restored ensemble must predict identically
	frame := NewPipeline(10).Build(testingpkg.TrendSeries(150, 100, 0.3))
	row := frame.InferenceRow()
	assert.InDelta(t, artifact.Ensemble.Predict(row), loaded.Ensemble.Predict(row), 1e-12)
}

func TestStoreLoadAbsent(t *testing.T) {
	store, err := NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	artifact, ok, err := store.Load("nothing-here")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, artifact)
}

func TestStoreLoadCorruptBehavesAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, zerolog.Nop())
	require.NoError(t, err)

	cases := map[string][]byte{
		"truncated":  {0x01},
		"bad-magic":  append([]byte("XXXX\x01"), 0xde, 0xad),
		"bad-vers":   append(append([]byte{}, artifactMagic...), 0x99, 0x01),
		"junk-body":  append(append(append([]byte{}, artifactMagic...), artifactFormatVersion), 0xff, 0xff, 0xff),
		"empty-file": {},
	}

	for name, data := range cases {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+artifactExtension), data, 0644))

		artifact, ok, loadErr := store.Load(name)
		assert.NoErrorf(t, loadErr, "case %s", name)
		assert.Falsef(t, ok, "case %s", name)
		assert.Nilf(t, artifact, "case %s", name)
	}
}

func TestStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, store.Save("ethereum", trainedArtifact(t)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ethereum"+artifactExtension, entries[0].Name())
}

func TestStoreDelete(t *testing.T) {
	store, err := NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, store.Save("bitcoin", trainedArtifact(t)))
	require.NoError(t, store.Delete("bitcoin"))

	_, ok, err := store.Load("bitcoin")
	assert.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing artifact is not an error
	assert.NoError(t, store.Delete("bitcoin"))
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, zerolog.Nop())
	require.NoError(t, err)

	artifact := trainedArtifact(t)
	require.NoError(t, store.Save("bitcoin", artifact))
	require.NoError(t, store.Save("ethereum", artifact))

	// Corrupt files are skipped, not surfaced
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken"+artifactExtension), []byte("nope"), 0644))

	models, err := store.List()
	require.NoError(t, err)
	require.Len(t, models, 2)

	ids := []string{models[0].AssetID, models[1].AssetID}
	assert.ElementsMatch(t, []string{"bitcoin", "ethereum"}, ids)
}

func TestArtifactCompatible(t *testing.T) {
	artifact := &Artifact{
		FeatureColumns: []string{"a", "b"},
		Metadata:       ArtifactMetadata{PipelineVersion: 1},
	}

	assert.True(t, artifact.Compatible(1, []string{"a", "b"}))
	assert.False(t, artifact.Compatible(2, []string{"a", "b"}))
	assert.False(t, artifact.Compatible(1, []string{"a"}))
	assert.False(t, artifact.Compatible(1, []string{"b", "a"}))
}

func TestStorePathSanitizesAssetID(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, store.Save("../evil/id", trainedArtifact(t)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "/")
}
