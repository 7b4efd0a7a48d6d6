package assemble

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"regift/internal/fileutil"
	"regift/internal/logging"
	"regift/internal/services"
)

const lockRetryDelay = 50 * time.Millisecond

// Options describes one output artifact.
type Options struct {
	Destination   string
	ExpectedCount int
	Container     ContainerMeta
	Frame         FrameMeta
}

// Assembler opens sessions against an encoder factory.
type Assembler struct {
	factory EncoderFactory
	lockDir string
	logger  *slog.Logger
}

// New builds an Assembler that keeps destination locks in DefaultLockDir.
func New(factory EncoderFactory, logger *slog.Logger) *Assembler {
	return &Assembler{
		factory: factory,
		lockDir: DefaultLockDir(),
		logger:  logging.NewComponentLogger(logger, "assemble"),
	}
}

// WithLockDir moves destination locks to dir. A blank dir keeps the current one.
func (a *Assembler) WithLockDir(dir string) *Assembler {
	if dir = strings.TrimSpace(dir); dir != "" {
		a.lockDir = dir
	}
	return a
}

// DefaultLockDir is where locks live when no state directory is configured.
func DefaultLockDir() string {
	return filepath.Join(os.TempDir(), "regift-locks")
}

// LockPath names the lock file guarding destination. Lock files stay out of
// the output directory; the name is derived from the absolute destination.
func LockPath(lockDir, destination string) string {
	sum := sha256.Sum256([]byte(destination))
	return filepath.Join(lockDir, hex.EncodeToString(sum[:16])+".lock")
}

type sessionState int

const (
	stateOpen sessionState = iota
	stateFinalized
	stateAborted
)

// Session is one open encoder plus its staged file and destination lock.
type Session struct {
	enc       Encoder
	lock      *flock.Flock
	container ContainerMeta
	staged    string
	final     string
	appended  int
	expected  int
	appendErr error
	state     sessionState
	logger    *slog.Logger
}

// Begin locks the destination, opens the encoder on a staged path beside it,
// and applies container metadata. Waiting for the lock honours ctx.
func (a *Assembler) Begin(ctx context.Context, opts Options) (*Session, error) {
	if a == nil || a.factory == nil {
		return nil, services.Wrap(services.ErrDestinationUnavailable, "assemble", "configure", "encoder unavailable", nil)
	}
	final := strings.TrimSpace(opts.Destination)
	if final == "" {
		return nil, services.Wrap(services.ErrInvalidRequest, "assemble", "resolve destination", "destination is required", nil)
	}
	final, err := filepath.Abs(final)
	if err != nil {
		return nil, services.Wrap(services.ErrDestinationUnavailable, "assemble", "resolve destination", final, err)
	}
	dir, base := filepath.Split(final)
	if err := fileutil.EnsureWritableDir(dir); err != nil {
		return nil, services.Wrap(services.ErrDestinationUnavailable, "assemble", "prepare directory", dir, err)
	}
	if info, err := os.Stat(final); err == nil && info.IsDir() {
		return nil, services.Wrap(services.ErrDestinationUnavailable, "assemble", "resolve destination", "destination is a directory", nil)
	}

	if err := os.MkdirAll(a.lockDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrDestinationUnavailable, "assemble", "prepare lock directory", a.lockDir, err)
	}
	lock := flock.New(LockPath(a.lockDir, final))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if !locked {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, services.FromContext("assemble", "lock destination", ctxErr)
		}
		return nil, services.Wrap(services.ErrDestinationUnavailable, "assemble", "lock destination", final, err)
	}

	staged := filepath.Join(dir, fmt.Sprintf(".%s.%s.partial", base, uuid.NewString()))
	enc, err := a.factory.Open(staged, opts.ExpectedCount)
	if err != nil {
		_ = os.Remove(staged)
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrDestinationUnavailable, "assemble", "open encoder", final, err)
	}
	enc.SetContainerMetadata(opts.Container)

	logger := logging.WithContext(ctx, a.logger)
	logger.Debug("encoder opened",
		logging.String("destination", final),
		logging.Int(logging.FieldFrameCount, opts.ExpectedCount),
		logging.Int("loop_count", opts.Container.LoopCount),
	)
	return &Session{
		enc:       enc,
		lock:      lock,
		container: opts.Container,
		staged:    staged,
		final:     final,
		expected:  opts.ExpectedCount,
		logger:    logger,
	}, nil
}

// Append commits one frame. After a failed append the session only accepts Close.
func (s *Session) Append(img image.Image, meta FrameMeta) error {
	if s.state != stateOpen {
		return services.Wrap(services.ErrEncodeAppendFailed, "assemble", "append", "session already closed", nil)
	}
	if s.appendErr != nil {
		return s.appendErr
	}
	index := s.appended
	if img == nil {
		s.appendErr = services.Wrap(services.ErrEncodeAppendFailed, "assemble", "append",
			fmt.Sprintf("frame %d has no image", index), nil)
		return s.appendErr
	}
	if err := s.enc.Append(img, meta); err != nil {
		s.appendErr = services.Wrap(services.ErrEncodeAppendFailed, "assemble", "append",
			fmt.Sprintf("frame %d", index), err)
		return s.appendErr
	}
	s.appended++
	return nil
}

// Appended reports how many frames were committed.
func (s *Session) Appended() int {
	return s.appended
}

// Commit re-applies container metadata, finalizes, and publishes the staged
// file at the destination. The returned path is only meaningful on success.
func (s *Session) Commit() (string, error) {
	if s.state != stateOpen {
		return "", services.Wrap(services.ErrEncodeFinalizeFailed, "assemble", "finalize", "session already closed", nil)
	}
	if s.appendErr != nil {
		err := s.appendErr
		s.abort()
		return "", err
	}

	s.enc.SetContainerMetadata(s.container)
	s.state = stateFinalized
	if err := s.enc.Finalize(); err != nil {
		s.release(true)
		return "", services.Wrap(services.ErrEncodeFinalizeFailed, "assemble", "finalize", s.final, err)
	}
	if err := fileutil.Publish(s.staged, s.final); err != nil {
		s.release(true)
		return "", services.Wrap(services.ErrDestinationUnavailable, "assemble", "publish", s.final, err)
	}
	s.release(false)

	s.logger.Debug("gif published",
		logging.String("destination", s.final),
		logging.Int(logging.FieldFrameCount, s.appended),
	)
	return s.final, nil
}

// Close aborts the encoder unless Commit already ran. It is safe to call
// more than once and is meant to be deferred right after Begin.
func (s *Session) Close() error {
	if s == nil || s.state != stateOpen {
		return nil
	}
	return s.abort()
}

func (s *Session) abort() error {
	s.state = stateAborted
	err := s.enc.Abort()
	s.release(true)
	s.logger.Debug("encoder aborted",
		logging.String("destination", s.final),
		logging.Int("appended", s.appended),
		logging.Int(logging.FieldFrameCount, s.expected),
	)
	if err != nil {
		return fmt.Errorf("abort encoder: %w", err)
	}
	return nil
}

func (s *Session) release(discard bool) {
	if discard {
		if err := os.Remove(s.staged); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("remove staged output failed", logging.String("path", s.staged), logging.Error(err))
		}
	}
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
}
