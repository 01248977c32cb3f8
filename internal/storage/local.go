package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Local writes files under root and serves them from publicBase.
type Local struct {
	root       string
	publicBase string
	log        *zap.Logger
}

func NewLocal(root, publicBase string, log *zap.Logger) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", abs, err)
	}
	return &Local{root: abs, publicBase: strings.TrimRight(publicBase, "/"), log: log}, nil
}

func (l *Local) Root() string {
	return l.root
}

func (l *Local) Save(_ context.Context, folder, ext string, r io.Reader, _ int64) (string, error) {
	dir := filepath.Join(l.root, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	fullPath := filepath.Join(dir, name)
	out, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		_ = os.Remove(fullPath)
		return "", err
	}

	l.log.Debug("upload stored", zap.String("path", fullPath))
	return l.publicBase + "/" + path.Join(folder, name), nil
}

// Delete removes a file previously returned by Save. References that resolve
// outside the upload root are refused; a missing file is not an error.
func (l *Local) Delete(_ context.Context, ref string) error {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return nil
	}
	if !strings.HasPrefix(trimmed, l.publicBase+"/") {
		return fmt.Errorf("refusing to delete non-upload path: %s", ref)
	}

	cleanRel := strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(trimmed, l.publicBase)), "/")
	target := filepath.Clean(filepath.Join(l.root, filepath.FromSlash(cleanRel)))
	if target == l.root || !strings.HasPrefix(target, l.root+string(os.PathSeparator)) {
		return fmt.Errorf("refusing to delete path outside upload root: %s", ref)
	}

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
