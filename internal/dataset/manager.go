package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/noot-app/food-risk-scanner/internal/config"
	"github.com/noot-app/food-risk-scanner/internal/model"
)

// Remote layout below the artifact base URL
const (
	RemoteModelDir     = "models"
	RemoteFoodDatabase = "food_database.csv"
)

// Metadata holds information about one downloaded artifact
type Metadata struct {
	SHA256       string    `json:"sha256"`
	DownloadedAt time.Time `json:"downloaded_at"`
	ETag         string    `json:"etag,omitempty"`
	Size         int64     `json:"size"`
}

// MetadataFile maps remote artifact names to what was downloaded for them
type MetadataFile map[string]Metadata

// Artifact is one remote file and where it is stored locally
type Artifact struct {
	Name      string
	LocalPath string
}

// Manager keeps the local model bundle and food database in sync with the
// artifact source
type Manager struct {
	source       Source
	modelDir     string
	databasePath string
	metadataPath string
	lockPath     string
	log          *slog.Logger
	config       *config.Config

	lockPollInterval time.Duration
	lockWaitTimeout  time.Duration
}

// NewManager creates a new artifact manager
func NewManager(source Source, cfg *config.Config, logger *slog.Logger) *Manager {
	return &Manager{
		source:           source,
		modelDir:         cfg.ModelDir,
		databasePath:     cfg.FoodDatabasePath,
		metadataPath:     cfg.MetadataPath,
		lockPath:         cfg.LockFile,
		log:              logger,
		config:           cfg,
		lockPollInterval: 2 * time.Second,
		lockWaitTimeout:  10 * time.Minute,
	}
}

// EnsureArtifacts makes sure the model bundle and food database are present
// and up-to-date, then checks that the bundle loads
func (m *Manager) EnsureArtifacts(ctx context.Context) error {
	start := time.Now()
	m.log.Info("Ensuring artifacts are available", "model_dir", m.modelDir, "food_database", m.databasePath)

	lockFile, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	if lockFile == nil && !m.config.IgnoreLock {
		// another instance finished the fetch while we waited
		return m.verifyModel()
	}
	if lockFile != nil {
		defer releaseLock(lockFile, m.lockPath)
	}

	meta, err := m.loadMetadata()
	if err != nil {
		m.log.Debug("No local metadata found", "error", err)
		meta = MetadataFile{}
	}

	manifest := Artifact{
		Name:      path.Join(RemoteModelDir, model.ManifestFile),
		LocalPath: filepath.Join(m.modelDir, model.ManifestFile),
	}
	if err := m.ensure(ctx, manifest, meta); err != nil {
		return err
	}

	booster, err := m.boosterArtifact(manifest.LocalPath)
	if err != nil {
		return err
	}
	database := Artifact{Name: RemoteFoodDatabase, LocalPath: m.databasePath}

	for _, a := range []Artifact{booster, database} {
		if err := m.ensure(ctx, a, meta); err != nil {
			return err
		}
	}

	if err := m.saveMetadata(meta); err != nil {
		m.log.Warn("Failed to save metadata", "error", err)
	}

	if err := m.verifyModel(); err != nil {
		return err
	}
	m.log.Info("Artifacts ensured", "duration", time.Since(start))
	return nil
}

// acquire takes the fetch lock. A nil file without error means another
// instance held the lock and has since released it.
func (m *Manager) acquire(ctx context.Context) (*os.File, error) {
	m.log.Debug("Attempting to acquire fetch lock", "lock_path", m.lockPath)

	if m.config.IgnoreLock {
		if _, err := os.Stat(m.lockPath); err == nil {
			m.log.Warn("IGNORE_LOCK enabled, forcefully removing existing lock file", "lock_path", m.lockPath)
			if err := os.Remove(m.lockPath); err != nil {
				m.log.Warn("Failed to remove lock file", "error", err)
			}
		}
	}

	lockFile, err := acquireLock(m.lockPath)
	if err == nil {
		return lockFile, nil
	}
	if m.config.IgnoreLock {
		m.log.Warn("IGNORE_LOCK enabled but still failed to acquire lock, proceeding anyway", "error", err)
		return nil, nil
	}

	m.log.Info("Another instance is fetching, waiting", "lock_path", m.lockPath)
	if err := m.waitForRelease(ctx); err != nil {
		return nil, err
	}
	return nil, nil
}

// ensure downloads a unless the local copy is current
func (m *Manager) ensure(ctx context.Context, a Artifact, meta MetadataFile) error {
	if _, err := os.Stat(a.LocalPath); err == nil {
		if m.config.DisableRemoteCheck {
			m.log.Info("Remote checks disabled, using local artifact", "artifact", a.Name)
			return nil
		}

		upToDate, err := m.isUpToDate(ctx, a, meta)
		if err != nil {
			m.log.Warn("Failed to verify artifact freshness", "artifact", a.Name, "error", err)
		}
		if upToDate {
			m.log.Info("Artifact is up-to-date", "artifact", a.Name)
			return nil
		}
	}

	entry, err := m.download(ctx, a)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", a.Name, err)
	}
	meta[a.Name] = *entry
	return nil
}

// isUpToDate compares the remote ETag, or the size when either side has no
// ETag, with what was recorded at download time
func (m *Manager) isUpToDate(ctx context.Context, a Artifact, meta MetadataFile) (bool, error) {
	local, ok := meta[a.Name]
	if !ok {
		return false, nil
	}

	remote, err := m.source.Stat(ctx, a.Name)
	if err != nil {
		return false, err
	}

	if remote.ETag != "" && local.ETag != "" {
		upToDate := remote.ETag == local.ETag
		m.log.Debug("ETag comparison", "artifact", a.Name, "local", local.ETag, "remote", remote.ETag, "up_to_date", upToDate)
		return upToDate, nil
	}

	upToDate := remote.Size == local.Size
	m.log.Debug("Size comparison", "artifact", a.Name, "local", local.Size, "remote", remote.Size, "up_to_date", upToDate)
	return upToDate, nil
}

// download fetches a into a temporary file next to its destination and
// renames it into place
func (m *Manager) download(ctx context.Context, a Artifact) (*Metadata, error) {
	start := time.Now()
	m.log.Info("Downloading artifact", "url", m.source.Location(a.Name), "path", a.LocalPath)

	if err := os.MkdirAll(filepath.Dir(a.LocalPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	body, err := m.source.Open(ctx, a.Name)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(a.LocalPath), filepath.Base(a.LocalPath)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	hash := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hash), body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), a.LocalPath); err != nil {
		return nil, fmt.Errorf("failed to move artifact into place: %w", err)
	}

	entry := &Metadata{
		SHA256:       hex.EncodeToString(hash.Sum(nil)),
		DownloadedAt: time.Now().UTC(),
		Size:         written,
	}
	if remote, err := m.source.Stat(ctx, a.Name); err == nil {
		entry.ETag = remote.ETag
	}

	m.log.Info("Artifact downloaded", "artifact", a.Name, "bytes", written, "sha256", entry.SHA256[:16]+"...", "duration", time.Since(start))
	return entry, nil
}

// boosterArtifact reads the downloaded manifest to find the booster file
func (m *Manager) boosterArtifact(manifestPath string) (Artifact, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return Artifact{}, err
	}
	var manifest model.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Artifact{}, &model.ModelLoadError{Path: manifestPath, Err: fmt.Errorf("malformed manifest: %w", err)}
	}
	file := manifest.Booster.File
	if file == "" || filepath.Base(file) != file {
		return Artifact{}, &model.ModelLoadError{Path: manifestPath, Err: fmt.Errorf("invalid booster file name %q", file)}
	}
	return Artifact{
		Name:      path.Join(RemoteModelDir, file),
		LocalPath: filepath.Join(m.modelDir, file),
	}, nil
}

func (m *Manager) verifyModel() error {
	classifier, err := model.Load(m.modelDir)
	if err != nil {
		return err
	}
	m.log.Info("Model bundle verified", "classes", classifier.Classes(), "features", len(classifier.FeatureNames()))
	return nil
}

// waitForRelease waits for another instance to finish its fetch
func (m *Manager) waitForRelease(ctx context.Context) error {
	ticker := time.NewTicker(m.lockPollInterval)
	defer ticker.Stop()

	timeout := time.After(m.lockWaitTimeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return fmt.Errorf("timeout waiting for fetch by other instance")
		case <-ticker.C:
			if _, err := os.Stat(m.lockPath); os.IsNotExist(err) {
				m.log.Info("Artifacts now available after other instance completed")
				return nil
			}
		}
	}
}

// loadMetadata loads metadata from the metadata file
func (m *Manager) loadMetadata() (MetadataFile, error) {
	data, err := os.ReadFile(m.metadataPath)
	if err != nil {
		return nil, err
	}

	var meta MetadataFile
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	if meta == nil {
		meta = MetadataFile{}
	}
	return meta, nil
}

// saveMetadata saves metadata to the metadata file
func (m *Manager) saveMetadata(meta MetadataFile) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.metadataPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(m.metadataPath, data, 0644)
}

// acquireLock attempts to acquire an exclusive lock
func acquireLock(lockPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	// O_CREATE|O_EXCL will fail if file exists
	return os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
}

// releaseLock releases the lock file
func releaseLock(f *os.File, lockPath string) {
	f.Close()
	os.Remove(lockPath)
}
