package cities

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lox/grlweather/internal/metrics"
	"github.com/lox/grlweather/internal/models"
	"github.com/lox/grlweather/internal/owm"
)

// DefaultSeed is the default city list loaded at startup.
var DefaultSeed = []string{"Manila", "Bern", "Delhi", "Lilongwe", "Islamabad"}

var (
	ErrIndexOutOfRange = errors.New("default city index out of range")
	ErrEmptyCity       = errors.New("city name is empty")
	ErrStopped         = errors.New("city store is not running")
)

// Fetcher returns the current conditions for a city name.
type Fetcher interface {
	FetchWeather(ctx context.Context, city string) (models.WeatherRecord, error)
}

// Policy decides which completion owns a city's status when fetches overlap.
type Policy int

const (
	// LastSettleWins lets whichever fetch settles last overwrite the entry,
	// even if a newer fetch for the same key was started after it.
	LastSettleWins Policy = iota
	// LastCallWins ignores completions from fetches superseded by a newer call.
	LastCallWins
)

func (p Policy) String() string {
	if p == LastCallWins {
		return "last-call-wins"
	}
	return "last-settle-wins"
}

// Change is published after every status write.
type Change struct {
	Collection Collection `json:"collection"`
	Key        string     `json:"key"`
	City       string     `json:"city"`
	Status     Status     `json:"status"`
}

// Store tracks weather status for the default and searched city collections.
// All state is owned by the goroutine running Run; public methods submit
// operations to it and wait for them to apply.
type Store struct {
	fetcher Fetcher
	policy  Policy
	logger  *slog.Logger
	now     func() time.Time

	ops     chan func()
	stopped chan struct{}
	wg      sync.WaitGroup

	// owned by Run
	runCtx   context.Context
	defaults []string
	searched []string
	statuses map[Collection]map[string]Status
	latest   map[Collection]map[string]uint64
	seq      uint64
	subs     map[int]chan Change
	nextSub  int
}

// New creates a store seeded with the given default cities. A nil seed uses DefaultSeed.
func New(fetcher Fetcher, seed []string) *Store {
	if seed == nil {
		seed = DefaultSeed
	}
	return &Store{
		fetcher:  fetcher,
		logger:   slog.Default(),
		now:      time.Now,
		ops:      make(chan func()),
		stopped:  make(chan struct{}),
		defaults: append([]string(nil), seed...),
		statuses: map[Collection]map[string]Status{
			Default:  {},
			Searched: {},
		},
		latest: map[Collection]map[string]uint64{
			Default:  {},
			Searched: {},
		},
		subs: make(map[int]chan Change),
	}
}

// SetPolicy selects the overlap policy. Must be called before Run.
func (s *Store) SetPolicy(p Policy) {
	s.policy = p
}

// SetLogger replaces the default logger. Must be called before Run.
func (s *Store) SetLogger(l *slog.Logger) {
	s.logger = l
}

// Run applies operations and fetch completions until ctx is cancelled.
// In-flight fetches inherit ctx.
func (s *Store) Run(ctx context.Context) {
	s.runCtx = ctx
	s.logger.Info("cities: store running", "policy", s.policy.String(), "defaults", len(s.defaults))

	for {
		select {
		case <-ctx.Done():
			close(s.stopped)
			s.wg.Wait()
			for id, ch := range s.subs {
				close(ch)
				delete(s.subs, id)
			}
			s.logger.Info("cities: store stopped")
			return
		case op := <-s.ops:
			op()
		}
	}
}

// do runs fn on the Run goroutine and waits for it to finish.
func (s *Store) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case s.ops <- func() { fn(); close(done) }:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrStopped
	}
	<-done
	return nil
}

// LoadCity marks the city as loading in the collection and starts a fetch.
// The status is Loading when LoadCity returns.
func (s *Store) LoadCity(ctx context.Context, coll Collection, city string) error {
	if !coll.Valid() {
		return fmt.Errorf("unknown collection %q", coll)
	}
	return s.do(ctx, func() { s.load(coll, city) })
}

// Initialize loads every city in the current default list.
func (s *Store) Initialize(ctx context.Context) error {
	return s.do(ctx, func() {
		for _, city := range s.defaults {
			s.load(Default, city)
		}
	})
}

// EditDefaultCity replaces the default city at index. A non-blank name is
// fetched straight away; the previous name's status entry is left in place.
func (s *Store) EditDefaultCity(ctx context.Context, index int, name string) error {
	var err error
	if doErr := s.do(ctx, func() {
		if index < 0 || index >= len(s.defaults) {
			err = fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
			return
		}
		s.defaults[index] = name
		if strings.TrimSpace(name) != "" {
			s.load(Default, name)
		}
	}); doErr != nil {
		return doErr
	}
	return err
}

// Search replaces the searched list with the trimmed name and fetches it.
func (s *Store) Search(ctx context.Context, city string) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return ErrEmptyCity
	}
	return s.do(ctx, func() {
		s.searched = []string{city}
		s.load(Searched, city)
	})
}

// RefreshAll reloads every listed default and searched city. Blank default entries are skipped.
func (s *Store) RefreshAll(ctx context.Context) error {
	return s.do(ctx, func() {
		for _, city := range s.defaults {
			if strings.TrimSpace(city) == "" {
				continue
			}
			s.load(Default, city)
		}
		for _, city := range s.searched {
			s.load(Searched, city)
		}
	})
}

// Snapshot returns a copy of the lists and status mappings.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func() {
		snap = Snapshot{
			Defaults: append([]string(nil), s.defaults...),
			Searched: append([]string(nil), s.searched...),
			Statuses: make(map[Collection]map[string]Status, len(s.statuses)),
		}
		for coll, m := range s.statuses {
			cp := make(map[string]Status, len(m))
			for k, v := range m {
				cp[k] = v
			}
			snap.Statuses[coll] = cp
		}
	})
	return snap, err
}

// Subscribe returns a channel of changes and a function that cancels the
// subscription. Changes are dropped for subscribers whose buffer is full.
// The channel is closed on cancel or when the store stops.
func (s *Store) Subscribe(ctx context.Context, buffer int) (<-chan Change, func(), error) {
	ch := make(chan Change, buffer)
	var id int
	if err := s.do(ctx, func() {
		id = s.nextSub
		s.nextSub++
		s.subs[id] = ch
	}); err != nil {
		return nil, nil, err
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = s.do(context.Background(), func() {
				if c, ok := s.subs[id]; ok {
					close(c)
					delete(s.subs, id)
				}
			})
		})
	}
	return ch, cancel, nil
}

func (s *Store) load(coll Collection, city string) {
	key := Key(city)
	s.seq++
	seq := s.seq
	s.latest[coll][key] = seq
	s.write(coll, key, city, Status{State: Loading, Seq: seq, UpdatedAt: s.now()})

	metrics.FetchesInFlight.Inc()
	s.wg.Add(1)
	go s.fetch(s.fetchContext(), coll, key, city, seq)
}

func (s *Store) fetchContext() context.Context {
	if s.runCtx == nil {
		return context.Background()
	}
	return s.runCtx
}

func (s *Store) fetch(ctx context.Context, coll Collection, key, city string, seq uint64) {
	defer s.wg.Done()

	data, err := s.fetcher.FetchWeather(ctx, city)
	metrics.FetchesInFlight.Dec()

	select {
	case s.ops <- func() { s.settle(coll, key, city, seq, data, err) }:
	case <-s.stopped:
	}
}

func (s *Store) settle(coll Collection, key, city string, seq uint64, data models.WeatherRecord, err error) {
	if s.policy == LastCallWins && s.latest[coll][key] != seq {
		metrics.StaleCompletionsDropped.Inc()
		s.logger.Debug("cities: dropping stale completion", "collection", coll, "key", key, "seq", seq, "latest", s.latest[coll][key])
		return
	}

	st := Status{Seq: seq, UpdatedAt: s.now()}
	if err != nil {
		st.State = Error
		st.Error = errorMessage(err)
		s.logger.Warn("cities: fetch failed", "collection", coll, "city", city, "error", st.Error)
	} else {
		st.State = Ready
		st.Data = data
		s.logger.Debug("cities: fetch ready", "collection", coll, "city", city)
	}
	s.write(coll, key, city, st)
}

func (s *Store) write(coll Collection, key, city string, st Status) {
	s.statuses[coll][key] = st
	metrics.CityStatusUpdates.WithLabelValues(string(coll), string(st.State)).Inc()

	change := Change{Collection: coll, Key: key, City: city, Status: st}
	for id, ch := range s.subs {
		select {
		case ch <- change:
		default:
			s.logger.Debug("cities: subscriber buffer full, dropping change", "subscriber", id, "key", key)
		}
	}
}

func errorMessage(err error) string {
	var fe *owm.FetchError
	if errors.As(err, &fe) {
		return fe.Message
	}
	return err.Error()
}
