package gist

import (
	"time"

	"github.com/dmitrijs2005/ghostpaste/internal/logging"
	"github.com/dmitrijs2005/ghostpaste/internal/retryx"
)

// DefaultMaxVersions is how many version blobs an update leaves behind.
const DefaultMaxVersions = 50

type Option func(*Service)

// WithRetryPolicy replaces the default policy applied to every store call.
func WithRetryPolicy(p retryx.Policy) Option {
	return func(s *Service) { s.retry = p }
}

// WithMaxVersions sets the retention used by the prune after each update.
// Values below 1 are ignored.
func WithMaxVersions(n int) Option {
	return func(s *Service) {
		if n >= 1 {
			s.maxVersions = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces NewID.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newID = gen }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.log = l }
}
