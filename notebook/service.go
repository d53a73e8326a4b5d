// server/notebook/service.go

// Package notebook maintains the folder and note hierarchy and the share
// links pointing into it. Every derived value (levels, paths, note counts,
// content metrics) is recomputed inside the same unit of work as the
// mutation that invalidates it.
package notebook

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vinizap/notesync/server/metrics"
	"github.com/vinizap/notesync/server/store"
)

// errHierarchyCycle reports parent links that loop back on themselves. Moves
// never create one within a unit of work, but concurrent moves on a store
// without row locks can.
var errHierarchyCycle = errors.New("hierarchy cycle")

type Service struct {
	store   store.Store
	log     zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
	token   func() (string, error)
}

type Option func(*Service)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l.With().Str("component", "notebook").Logger() }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces time.Now, mostly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		log:   zerolog.Nop(),
		now:   time.Now,
		newID: uuid.NewString,
		token: randomToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func randomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
