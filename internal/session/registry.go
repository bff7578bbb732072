package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/shopsphere-storefront/internal/app/store"
	"github.com/ikkim/shopsphere-storefront/pkg/logger"
)

// API is everything the per-visitor stores need from the storefront API
type API interface {
	store.ProductAPI
	store.ReviewAPI
	store.UserAPI
	store.AnalysisAPI
}

// State is one visitor's application state
type State struct {
	ID       string
	Products *store.ProductStore
	Reviews  *store.ReviewStore
	User     *store.UserStore
	Analysis *store.AnalysisView

	lastSeen atomic.Int64

	mu         sync.Mutex
	flash      string
	flashError string
}

func (s *State) touch(t time.Time) {
	s.lastSeen.Store(t.UnixNano())
}

// LastSeen is when the visitor last made a request
func (s *State) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Flash keeps msg for the next page this visitor renders
func (s *State) Flash(msg string) {
	s.mu.Lock()
	s.flash = msg
	s.mu.Unlock()
}

// FlashError keeps a failure message for the next page
func (s *State) FlashError(msg string) {
	s.mu.Lock()
	s.flashError = msg
	s.mu.Unlock()
}

// TakeFlash returns and clears the pending notice and failure messages
func (s *State) TakeFlash() (notice, failure string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	notice, failure = s.flash, s.flashError
	s.flash, s.flashError = "", ""
	return notice, failure
}

// Options sizes the stores built for each visitor
type Options struct {
	ProductPageLimit int
	ReviewPageLimit  int
}

// Registry owns every visitor's State, keyed by session id
type Registry struct {
	api  API
	opts Options
	now  func() time.Time

	mu     sync.RWMutex
	states map[string]*State
}

func NewRegistry(api API, opts Options) *Registry {
	return &Registry{
		api:    api,
		opts:   opts,
		now:    time.Now,
		states: make(map[string]*State),
	}
}

// Create builds a fresh State under a new id
func (r *Registry) Create() *State {
	reviews := store.NewReviewStore(r.api, r.opts.ReviewPageLimit)
	st := &State{
		ID:       uuid.NewString(),
		Products: store.NewProductStore(r.api, r.opts.ProductPageLimit),
		Reviews:  reviews,
		User:     store.NewUserStore(r.api),
		Analysis: store.NewAnalysisView(r.api, reviews),
	}
	st.touch(r.now())

	r.mu.Lock()
	r.states[st.ID] = st
	r.mu.Unlock()

	logger.Debug("Visitor state created", map[string]interface{}{
		"session_id": st.ID,
	})
	return st
}

// Get returns the State for id and marks it as seen
func (r *Registry) Get(id string) (*State, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.RLock()
	st, ok := r.states[id]
	r.mu.RUnlock()
	if ok {
		st.touch(r.now())
	}
	return st, ok
}

// Remove drops the State for id
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.states, id)
	r.mu.Unlock()
}

// Sweep drops every State not seen within idle and returns how many went
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, st := range r.states {
		if st.LastSeen().Before(cutoff) {
			delete(r.states, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.states)
}
