// Package fetch downloads and integrity-verifies model artifacts. A download
// is all-or-nothing: bytes stream to a temp file and only a checksum-verified
// file is renamed into place, so a partial or corrupt artifact is never
// visible at the final path.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"inferd/pkg/types"
)

// ArtifactExt is the on-disk extension for model weights.
const ArtifactExt = ".gguf"

// Fetcher downloads tier artifacts into a models directory.
// It performs no retries; transient failures surface as network errors for
// the caller to retry with its own backoff.
type Fetcher struct {
	Dir    string
	Client *http.Client
	Log    zerolog.Logger
}

func New(dir string, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		Dir: dir,
		// Generous total timeout: artifacts are multi-GB.
		Client: &http.Client{Timeout: 4 * time.Hour},
		Log:    log,
	}
}

// ArtifactPath returns the final on-disk path for a tier's artifact.
func (f *Fetcher) ArtifactPath(tier types.Tier) string {
	return filepath.Join(f.Dir, tier.ID+ArtifactExt)
}

// Download ensures the tier's artifact exists at its final path with a
// matching checksum and returns that path. An existing verified file returns
// immediately without network I/O.
func (f *Fetcher) Download(ctx context.Context, tier types.Tier) (string, error) {
	final := f.ArtifactPath(tier)
	if _, err := os.Stat(final); err == nil {
		ok, err := f.verify(final, tier.SHA256)
		if err == nil && ok {
			f.Log.Debug().Str("tier", tier.ID).Msg("artifact present and verified")
			return final, nil
		}
		f.Log.Warn().Str("tier", tier.ID).Msg("existing artifact failed verification, re-downloading")
	}

	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", fmt.Errorf("models dir: %w", err)
	}

	f.Log.Info().Str("tier", tier.ID).Float64("size_gb", tier.SizeGB).Msg("downloading artifact")
	tmp := final + ".tmp-" + uuid.NewString()
	sum, err := f.streamTo(ctx, tier.URL, tmp)
	if err != nil {
		os.Remove(tmp)
		return "", err
	}
	if sum != tier.SHA256 {
		os.Remove(tmp)
		return "", integrityError{tierID: tier.ID, want: tier.SHA256, got: sum}
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("publish artifact: %w", err)
	}
	f.Log.Info().Str("tier", tier.ID).Msg("artifact downloaded and verified")
	return final, nil
}

// streamTo writes the body of url to path, hashing as it streams, and
// returns the hex SHA-256 of the written bytes. Transport and status failures
// come back as network errors (retryable); local filesystem failures do not,
// so a full disk is never retried.
func (f *Fetcher) streamTo(ctx context.Context, url, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", networkError{url: url, cause: err}
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", networkError{url: url, cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", networkError{url: url, cause: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(out, h), resp.Body); err != nil {
		out.Close()
		// A write failure carries a path error; a broken stream does not.
		var pe *fs.PathError
		if errors.As(err, &pe) {
			return "", fmt.Errorf("write artifact: %w", err)
		}
		return "", networkError{url: url, cause: err}
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return "", fmt.Errorf("sync artifact: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close artifact: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify recomputes the checksum of an on-disk artifact against the tier.
func (f *Fetcher) Verify(tier types.Tier) (bool, error) {
	return f.verify(f.ArtifactPath(tier), tier.SHA256)
}

func (f *Fetcher) verify(path, want string) (bool, error) {
	in, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer in.Close()
	h := sha256.New()
	if _, err := io.Copy(h, in); err != nil {
		return false, err
	}
	return hex.EncodeToString(h.Sum(nil)) == want, nil
}
