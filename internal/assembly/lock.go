package assembly

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrVideoLocked is returned when another process is assembling the same video.
var ErrVideoLocked = errors.New("video is already being assembled")

func lockVideo(dir, videoID string) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(filepath.Join(dir, videoID+".lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVideoLocked, videoID)
	}
	return func() { _ = lock.Unlock() }, nil
}
