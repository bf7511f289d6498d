package dashboard

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"patient-dashboard/internal/models"
)

// ErrSuperseded is returned by a load whose response arrived after a newer
// load had started. Its result is discarded.
var ErrSuperseded = errors.New("request superseded by a newer one")

// ErrClosed is returned by loads started after Shutdown.
var ErrClosed = errors.New("dashboard store is shut down")

type Fetcher interface {
	FetchSorted(ctx context.Context, field models.SortField, order models.SortOrder) ([]models.Patient, error)
	FetchOne(ctx context.Context, id string) (*models.Patient, error)
}

// Store owns the dashboard View. Every load takes a new generation and
// cancels the one in flight, so the last request started wins.
type Store struct {
	fetcher      Fetcher
	defaultSort  models.SortField
	defaultOrder models.SortOrder
	startOnce    sync.Once

	mu       sync.Mutex
	view     View
	gen      uint64
	cancel   context.CancelFunc
	closed   bool
	inflight sync.WaitGroup

	// notifyMu keeps listener calls in mutation order.
	notifyMu    sync.Mutex
	listenersMu sync.RWMutex
	listeners   map[int]func(View)
	nextID      int
}

func NewStore(fetcher Fetcher, field models.SortField, order models.SortOrder) *Store {
	return &Store{
		fetcher:      fetcher,
		defaultSort:  field,
		defaultOrder: order,
		view: View{
			Phase:    PhaseLoading,
			Patients: []models.Patient{},
			SortBy:   field,
			Order:    order,
		},
		listeners: make(map[int]func(View)),
	}
}

// Start runs the initial sorted load. Only the first call does anything.
func (s *Store) Start(ctx context.Context) error {
	var err error
	s.startOnce.Do(func() {
		err = s.LoadSorted(ctx, s.defaultSort, s.defaultOrder)
	})
	return err
}

// Shutdown cancels the request in flight, refuses new loads and waits for
// every started load to return.
func (s *Store) Shutdown() {
	s.mu.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.inflight.Wait()
}

func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.clone()
}

// Watch registers fn to receive every new View, in mutation order. fn runs
// while transitions are blocked and must not call back into the Store.
// The returned func unregisters it.
func (s *Store) Watch(fn func(View)) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

// SetSearch records the search input without fetching.
func (s *Store) SetSearch(id string) {
	s.mutate(func(v *View) { v.SearchID = id })
}

// LoadSorted replaces the patient list with the backend's ordering for
// field/order. On failure the previous list is kept and the error is shown.
func (s *Store) LoadSorted(ctx context.Context, field models.SortField, order models.SortOrder) error {
	return s.loadSorted(ctx, func(v *View) {
		v.SortBy, v.Order = field, order
	})
}

// Reset clears the search and selection, then reloads with the current sort.
func (s *Store) Reset(ctx context.Context) error {
	return s.loadSorted(ctx, func(v *View) {
		v.SearchID = ""
	})
}

func (s *Store) loadSorted(ctx context.Context, prepare func(v *View)) error {
	var field models.SortField
	var order models.SortOrder
	ctx, gen, done, err := s.begin(ctx, func(v *View) {
		prepare(v)
		v.Selected = nil
		field, order = v.SortBy, v.Order
	})
	if err != nil {
		return err
	}
	defer done()

	patients, err := s.fetcher.FetchSorted(ctx, field, order)
	current := s.finish(gen, func(v *View) {
		if err != nil {
			v.Phase = PhaseErrored
			v.Error = err.Error()
			v.FailedOp = models.OpFetchSorted
			return
		}
		v.Patients = patients
		v.Phase = PhaseLoaded
	})
	if !current {
		return ErrSuperseded
	}
	if err != nil {
		log.Printf("Failed to load patients sorted by %s/%s: %v", field, order, err)
		return err
	}
	log.Printf("Loaded %d patients sorted by %s/%s", len(patients), field, order)
	return nil
}

// LoadOne selects a single patient by id. A blank id only updates the
// search input.
func (s *Store) LoadOne(ctx context.Context, id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		s.SetSearch(id)
		return nil
	}

	ctx, gen, done, err := s.begin(ctx, func(v *View) {
		v.SearchID = id
	})
	if err != nil {
		return err
	}
	defer done()

	patient, err := s.fetcher.FetchOne(ctx, trimmed)
	current := s.finish(gen, func(v *View) {
		if err != nil {
			v.Selected = nil
			v.Phase = PhaseErrored
			v.Error = err.Error()
			v.FailedOp = models.OpFetchOne
			return
		}
		v.Selected = patient
		v.Phase = PhaseSelected
	})
	if !current {
		return ErrSuperseded
	}
	if err != nil {
		log.Printf("[%s] Patient lookup failed: %v", trimmed, err)
		return err
	}
	log.Printf("[%s] Patient selected", patient.ID)
	return nil
}

// begin moves the View into loading under a new generation and cancels the
// request it supersedes. done must be called once the fetch has returned.
func (s *Store) begin(parent context.Context, prepare func(v *View)) (context.Context, uint64, func(), error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, 0, nil, ErrClosed
	}
	s.inflight.Add(1)

	ctx, cancel := context.WithCancel(parent)
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel

	prepare(&s.view)
	s.view.Phase = PhaseLoading
	s.view.Error = ""
	s.view.FailedOp = ""
	s.view.Generation = gen
	s.publishLocked()

	return ctx, gen, func() {
		cancel()
		s.inflight.Done()
	}, nil
}

// finish applies the outcome of generation gen, or drops it if a newer
// generation has started.
func (s *Store) finish(gen uint64, apply func(v *View)) bool {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return false
	}
	s.cancel = nil
	apply(&s.view)
	s.publishLocked()
	return true
}

func (s *Store) mutate(apply func(v *View)) {
	s.mu.Lock()
	apply(&s.view)
	s.publishLocked()
}

// publishLocked must be called with s.mu held; it releases it.
func (s *Store) publishLocked() {
	snap := s.view.clone()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.listenersMu.RLock()
	fns := make([]func(View), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}
