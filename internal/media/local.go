package media

import (
	"context"       // Cancellation before touching disk
	"fmt"           // Name formatting and error wrapping
	"io"            // Copy fallback
	"os"            // Files and directories
	"path/filepath" // Path joining and extensions
	"strings"       // Extension normalisation
	"time"          // Timestamped names

	"github.com/google/uuid" // Collision-free name suffix
)

// LocalStore keeps slips in a directory served as static files
type LocalStore struct {
	dir string
	now func() time.Time
}

// NewLocalStore creates dir if needed
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, now: time.Now}, nil
}

// Dir is the directory slips are written to
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save moves the temporary file into the store under a timestamped name and
// returns that name
func (s *LocalStore) Save(ctx context.Context, tempPath, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))                                 // Keep the client's extension
	name := fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString()[:8], ext) // <millis>-<8 hex><ext>
	dst := filepath.Join(s.dir, name)

	if err := os.Rename(tempPath, dst); err != nil {
		// Rename fails across filesystems
		if err := copyFile(tempPath, dst); err != nil {
			return "", fmt.Errorf("store slip: %w", err)
		}
	}
	return name, nil
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
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst) // No half-written slips
		return err
	}
	return out.Close()
}
