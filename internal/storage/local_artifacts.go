package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const localScheme = "local://"

var ErrInvalidKey = errors.New("invalid artifact key")

// LocalArtifacts keeps artifacts as files under a root directory. Writes go
// to a temporary file first so a partial upload is never visible.
type LocalArtifacts struct {
	root string
}

func NewLocalArtifacts(root string) (*LocalArtifacts, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve artifact dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir: %w", err)
	}
	return &LocalArtifacts{root: abs}, nil
}

func (l *LocalArtifacts) Store(ctx context.Context, key string, r io.Reader) (string, error) {
	target, err := l.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return localScheme + filepath.ToSlash(key), nil
}

func (l *LocalArtifacts) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := l.fromLocator(locator)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return f, nil
}

// Delete is idempotent: a missing artifact is not an error.
func (l *LocalArtifacts) Delete(ctx context.Context, locator string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := l.fromLocator(locator)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

func (l *LocalArtifacts) fromLocator(locator string) (string, error) {
	key, ok := strings.CutPrefix(locator, localScheme)
	if !ok {
		return "", fmt.Errorf("%w: unknown locator %q", ErrInvalidKey, locator)
	}
	return l.resolve(key)
}

// resolve maps key to a path that is guaranteed to stay below root.
func (l *LocalArtifacts) resolve(key string) (string, error) {
	if key == "" || filepath.IsAbs(key) || strings.Contains(key, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	target := filepath.Join(l.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(l.root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return target, nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
