package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodeck/internal/config"
	testingpkg "cryptodeck/internal/testing"
)

type fakeStore struct {
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Upload(ctx context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	for key, data := range f.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, ObjectInfo{Key: key, SizeBytes: int64(len(data))})
		}
	}
	return objects, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func newTestBackupService(t *testing.T, store ObjectStore, keep int) *BackupService {
	t.Helper()

	db, cleanup := testingpkg.NewTestDB(t, "ledger")
	t.Cleanup(cleanup)

	_, err := db.Conn().Exec(`CREATE TABLE sample (id INTEGER PRIMARY KEY, note TEXT)`)
	require.NoError(t, err)
	_, err = db.Conn().Exec(`INSERT INTO sample (note) VALUES ('hello')`)
	require.NoError(t, err)

	modelsDir := t.TempDir()
	cfg := &config.BackupConfig{Prefix: "backups/", Keep: keep}
	return NewBackupService(db, modelsDir, store, cfg, zerolog.Nop())
}

func TestCreateAndUploadProducesValidArchive(t *testing.T) {
	store := newFakeStore()
	svc := newTestBackupService(t, store, 5)

	key, err := svc.CreateAndUpload(context.Background())
	require.NoError(t, err)
	require.Contains(t, key, "backups/cryptodeck-backup-")

	data, ok := store.objects[key]
	require.True(t, ok)

	files := readArchive(t, data)
	require.Contains(t, files, "ledger.db")
	require.Contains(t, files, manifestName)

	var manifest Manifest
	require.NoError(t, json.Unmarshal(files[manifestName], &manifest))
	require.Len(t, manifest.Files, 1) // Only the ledger; models dir was empty

	assert.Equal(t, "ledger.db", manifest.Files[0].Path)
	assert.Equal(t, int64(len(files["ledger.db"])), manifest.Files[0].SizeBytes)
	assert.Len(t, manifest.Files[0].SHA256, 64)
}

func TestPruneKeepsNewest(t *testing.T) {
	store := newFakeStore()
	svc := newTestBackupService(t, store, 2)

	// Seed three fake backups at distinct timestamps
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		key := "backups/" + backupPrefix + base.AddDate(0, 0, i).Format(backupTimestamp) + ".tar.gz"
		store.objects[key] = []byte("archive")
	}

	require.NoError(t, svc.Prune(context.Background()))

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 2)

	// Newest two survive
	assert.Equal(t, base.AddDate(0, 0, 2), backups[0].Timestamp)
	assert.Equal(t, base.AddDate(0, 0, 1), backups[1].Timestamp)
}

func TestListBackupsIgnoresForeignKeys(t *testing.T) {
	store := newFakeStore()
	svc := newTestBackupService(t, store, 5)

	store.objects["backups/"+backupPrefix+"not-a-timestamp.tar.gz"] = []byte("x")
	store.objects["backups/unrelated.txt"] = []byte("x")

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestRunUploadsAndPrunes(t *testing.T) {
	store := newFakeStore()
	svc := newTestBackupService(t, store, 1)

	require.NoError(t, svc.Run(context.Background()))
	assert.Len(t, store.objects, 1)
	assert.Equal(t, "backup", svc.Name())
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()

	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer gz.Close()

	files := make(map[string][]byte)
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[header.Name] = content
	}
	return files
}
