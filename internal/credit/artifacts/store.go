// Package artifacts fetches the persisted model and feature schema once and
// loads them from the local copy for the rest of the process lifetime.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"credit-default-risk/internal/common/errors"
	"credit-default-risk/internal/common/http"
	"credit-default-risk/internal/common/logger"
)

// Artifact names one persisted file and where to get it if it is missing.
type Artifact struct {
	Name string
	Path string
	URL  string
}

// Store downloads missing artifacts. It never refreshes an existing file.
type Store struct {
	client *http.Client
	log    logger.Logger
}

func NewStore(timeout time.Duration, log logger.Logger) *Store {
	return &Store{
		client: http.NewClient(timeout),
		log:    log.WithFields(map[string]interface{}{"component": "artifacts"}),
	}
}

// Ensure returns a.Path, fetching it from a.URL first when it does not exist.
// The download lands in a temporary file that is renamed into place, so a
// failed fetch never leaves a partial artifact behind.
func (s *Store) Ensure(ctx context.Context, a Artifact) (string, error) {
	info, err := os.Stat(a.Path)
	switch {
	case err == nil && info.Mode().IsRegular():
		s.log.Debug("Using local artifact", map[string]interface{}{"artifact": a.Name, "path": a.Path})
		return a.Path, nil
	case err == nil:
		return "", errors.NewArtifactLoadFailedError(a.Name, fmt.Errorf("%s is not a regular file", a.Path))
	case !os.IsNotExist(err):
		return "", errors.NewArtifactLoadFailedError(a.Name, err)
	}

	if a.URL == "" {
		return "", errors.NewArtifactFetchFailedError(a.Name,
			fmt.Errorf("%s does not exist and no download url is configured", a.Path))
	}

	s.log.Info("Fetching missing artifact", map[string]interface{}{"artifact": a.Name, "path": a.Path})
	start := time.Now()

	n, err := s.fetch(ctx, a)
	if err != nil {
		s.log.Error("Artifact fetch failed", map[string]interface{}{"artifact": a.Name, "error": err})
		return "", errors.NewArtifactFetchFailedError(a.Name, err)
	}

	s.log.Info("Artifact fetched", map[string]interface{}{
		"artifact": a.Name,
		"bytes":    n,
		"duration": time.Since(start).String(),
	})
	return a.Path, nil
}

func (s *Store) fetch(ctx context.Context, a Artifact) (int64, error) {
	dir := filepath.Dir(a.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(a.Path)+".*.part")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	n, err := s.client.Download(ctx, a.URL, tmp)
	if err == nil && n == 0 {
		err = fmt.Errorf("empty response from %s", a.URL)
	}
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, err
	}

	if err := os.Rename(tmp.Name(), a.Path); err != nil {
		return 0, err
	}
	return n, nil
}
