// Package directory decides, once per process, which backend serves the user directory.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/flavorhub/community-api/internal/platform/logging"
	"github.com/flavorhub/community-api/internal/ports/out/idempotency"
	"github.com/flavorhub/community-api/internal/ports/out/userdir"
)

type Backend string

const (
	BackendRemote Backend = "remote"
	BackendLocal  Backend = "local"
)

// Opened is a ready-to-use backend.
type Opened struct {
	Directory userdir.Directory
	Replays   idempotency.Store
	Close     func()
}

// Opener connects to one backend. It is called at most once.
type Opener func(ctx context.Context) (Opened, error)

// Selection is the outcome of backend selection.
type Selection struct {
	Backend   Backend
	Directory userdir.Directory
	Replays   idempotency.Store
	close     func()
}

// Close releases the selected backend's resources.
func (s Selection) Close() {
	if s.close != nil {
		s.close()
	}
}

// Selector picks the remote backend when it is configured and reachable,
// the local one otherwise. The first Select decides for the life of the
// process: a remote backend that becomes reachable later is ignored.
type Selector struct {
	remoteConfigured bool
	remote           Opener
	local            Opener
	log              *slog.Logger

	once sync.Once
	sel  Selection
	err  error
}

func NewSelector(remoteConfigured bool, remote, local Opener, log *slog.Logger) *Selector {
	if log == nil {
		log = logging.Discard()
	}
	return &Selector{
		remoteConfigured: remoteConfigured,
		remote:           remote,
		local:            local,
		log:              logging.Component(log, "directory-selector"),
	}
}

// Select returns the backend, choosing it on the first call.
func (s *Selector) Select(ctx context.Context) (Selection, error) {
	s.once.Do(func() {
		s.sel, s.err = s.choose(ctx)
	})
	return s.sel, s.err
}

func (s *Selector) choose(ctx context.Context) (Selection, error) {
	if s.remoteConfigured && s.remote != nil {
		opened, err := s.remote(ctx)
		if err == nil {
			s.log.Info("using remote directory")
			return selection(BackendRemote, opened), nil
		}
		s.log.Warn("remote directory unavailable; falling back to local storage", logging.Err(err))
	} else {
		s.log.Warn("remote directory not configured; using local storage")
	}

	if s.local == nil {
		return Selection{}, errors.New("no local directory configured")
	}
	opened, err := s.local(ctx)
	if err != nil {
		return Selection{}, fmt.Errorf("open local directory: %w", err)
	}
	s.log.Info("using local directory")
	return selection(BackendLocal, opened), nil
}

func selection(b Backend, o Opened) Selection {
	return Selection{
		Backend:   b,
		Directory: o.Directory,
		Replays:   o.Replays,
		close:     o.Close,
	}
}
