// internal/game/registry.go
package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mfranchi/imposter/internal/protocol"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// Announcement is one lobby's discovery-beacon payload.
type Announcement struct {
	Code string
	Host string
}

// Registry is the process-wide directory of active lobbies, keyed by join
// code. Its lock covers only the directory map, never an individual
// lobby's state, so directory churn cannot block gameplay in unrelated
// lobbies.
type Registry struct {
	mu      sync.Mutex
	lobbies map[string]*Lobby
	rng     *rand.Rand

	defaults Settings
	words    []string
	logger   *logrus.Logger
}

// NewRegistry builds an empty directory with the resolved default
// settings and the shared word list.
func NewRegistry(defaults Settings, words []string, logger *logrus.Logger) *Registry {
	return &Registry{
		lobbies:  make(map[string]*Lobby),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		defaults: defaults,
		words:    words,
		logger:   logger,
	}
}

// Create merges the optional override over the defaults, picks an unused
// code, and stores a new lobby wired to remove itself once empty.
func (r *Registry) Create(override *protocol.SettingsOverride) *Lobby {
	r.mu.Lock()
	defer r.mu.Unlock()

	var code string
	for {
		code = r.randomCodeUnsafe()
		if _, taken := r.lobbies[code]; !taken {
			break
		}
	}

	l := NewLobby(code, r.defaults.apply(override), r.words, r.logger)
	l.OnEmpty = func(code string) { r.Remove(code) }
	r.lobbies[code] = l
	r.logger.Infof("created lobby %s", code)
	return l
}

// Get looks up a lobby by code.
func (r *Registry) Get(code string) (*Lobby, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lobbies[code]
	return l, ok
}

// Remove drops a lobby from the directory. Removing an absent code is a
// no-op.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lobbies[code]; ok {
		delete(r.lobbies, code)
		r.logger.Infof("removed lobby %s", code)
	}
}

// Announcements snapshots the (code, host) pairs for the discovery
// beacon. Host names are read with each lobby's own lock after the
// directory lock is released.
func (r *Registry) Announcements() []Announcement {
	r.mu.Lock()
	snapshot := make([]*Lobby, 0, len(r.lobbies))
	for _, l := range r.lobbies {
		snapshot = append(snapshot, l)
	}
	r.mu.Unlock()

	out := make([]Announcement, 0, len(snapshot))
	for _, l := range snapshot {
		out = append(out, Announcement{Code: l.Code(), Host: l.HostName()})
	}
	return out
}

func (r *Registry) randomCodeUnsafe() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[r.rng.Intn(len(codeAlphabet))]
	}
	return string(b)
}
