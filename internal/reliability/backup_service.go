package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cryptodeck/internal/config"
	"cryptodeck/internal/database"
)

const (
	backupPrefix    = "cryptodeck-backup-"
	backupTimestamp = "2006-01-02-150405"
	manifestName    = "manifest.json"
)

// Manifest describes the files inside one backup archive
type Manifest struct {
	CreatedAt time.Time      `json:"created_at"`
	Files     []ManifestFile `json:"files"`
}

// ManifestFile is one archived file with its integrity checksum
type ManifestFile struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	SHA256    string `json:"sha256"`
}

// BackupInfo describes one backup stored remotely
type BackupInfo struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
}

// BackupService archives the ledger database and the model directory into
// a tar.gz with a SHA-256 manifest, uploads it, and prunes old backups.
// It doubles as the scheduler's backup job.
type BackupService struct {
	ledger    *database.DB
	modelsDir string
	store     ObjectStore
	cfg       *config.BackupConfig
	log       zerolog.Logger
}

// NewBackupService creates the backup service
func NewBackupService(
	ledger *database.DB,
	modelsDir string,
	store ObjectStore,
	cfg *config.BackupConfig,
	log zerolog.Logger,
) *BackupService {
	return &BackupService{
		ledger:    ledger,
		modelsDir: modelsDir,
		store:     store,
		cfg:       cfg,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// Name implements scheduler.Job
func (s *BackupService) Name() string {
	return "backup"
}

// Run implements scheduler.Job: create, upload, prune
func (s *BackupService) Run(ctx context.Context) error {
	key, err := s.CreateAndUpload(ctx)
	if err != nil {
		return err
	}
	s.log.Info().Str("key", key).Msg("Backup uploaded")

	return s.Prune(ctx)
}

// CreateAndUpload stages the data files, archives them, and uploads the
// archive. Returns the remote key.
func (s *BackupService) CreateAndUpload(ctx context.Context) (string, error) {
	staging, err := os.MkdirTemp("", "backup-staging-*")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	manifest := Manifest{CreatedAt: time.Now().UTC()}

	// Checkpoint so the copied ledger file contains every committed write
	if err := s.ledger.Checkpoint(); err != nil {
		return "", fmt.Errorf("failed to checkpoint ledger: %w", err)
	}
	ledgerCopy := filepath.Join(staging, "ledger.db")
	if err := copyFile(s.ledger.Path(), ledgerCopy); err != nil {
		return "", fmt.Errorf("failed to stage ledger: %w", err)
	}
	if err := manifest.add(staging, ledgerCopy); err != nil {
		return "", err
	}

	// Model artifacts, flat copy
	entries, err := os.ReadDir(s.modelsDir)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read models directory: %w", err)
	}
	if len(entries) > 0 {
		modelStaging := filepath.Join(staging, "models")
		if err := os.MkdirAll(modelStaging, 0755); err != nil {
			return "", fmt.Errorf("failed to stage models directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			dst := filepath.Join(modelStaging, entry.Name())
			if err := copyFile(filepath.Join(s.modelsDir, entry.Name()), dst); err != nil {
				return "", fmt.Errorf("failed to stage model %s: %w", entry.Name(), err)
			}
			if err := manifest.add(staging, dst); err != nil {
				return "", err
			}
		}
	}

	manifestPath := filepath.Join(staging, manifestName)
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, manifestData, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	archiveName := backupPrefix + time.Now().UTC().Format(backupTimestamp) + ".tar.gz"
	archivePath := filepath.Join(os.TempDir(), archiveName)
	defer os.Remove(archivePath)

	if err := createArchive(archivePath, staging); err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	key := s.cfg.Prefix + archiveName
	if err := s.store.Upload(ctx, key, archive); err != nil {
		return "", err
	}
	return key, nil
}

// ListBackups returns remote backups, newest first
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, s.cfg.Prefix+backupPrefix)
	if err != nil {
		return nil, err
	}

	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, s.cfg.Prefix)
		if !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, ".tar.gz") {
			continue
		}
		raw := strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), ".tar.gz")
		ts, err := time.Parse(backupTimestamp, raw)
		if err != nil {
			s.log.Warn().Str("key", obj.Key).Msg("Unparseable backup key, skipping")
			continue
		}
		backups = append(backups, BackupInfo{Key: obj.Key, Timestamp: ts, SizeBytes: obj.SizeBytes})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// Prune deletes everything beyond the configured number of newest backups
func (s *BackupService) Prune(ctx context.Context) error {
	keep := s.cfg.Keep
	if keep < 1 {
		keep = 1
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return err
	}
	if len(backups) <= keep {
		return nil
	}

	for _, backup := range backups[keep:] {
		if err := s.store.Delete(ctx, backup.Key); err != nil {
			s.log.Error().Err(err).Str("key", backup.Key).Msg("Failed to prune backup")
			continue
		}
		s.log.Info().Str("key", backup.Key).Msg("Old backup pruned")
	}
	return nil
}

func (m *Manifest) add(stagingRoot, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	checksum, err := fileChecksum(path)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(stagingRoot, path)
	if err != nil {
		return fmt.Errorf("failed to relativize %s: %w", path, err)
	}
	m.Files = append(m.Files, ManifestFile{
		Path:      filepath.ToSlash(rel),
		SizeBytes: info.Size(),
		SHA256:    checksum,
	})
	return nil
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to checksum %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// createArchive packs the staging directory into a tar.gz, paths relative
// to the staging root
func createArchive(archivePath, stagingRoot string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	err = filepath.Walk(stagingRoot, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() || path == archivePath {
			return nil
		}

		rel, err := filepath.Rel(stagingRoot, path)
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return out.Close()
}
