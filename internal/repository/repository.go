package repository

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/pulse/internal/domain"
)

// entry is everything the repository knows about one service.
type entry struct {
	configuration      domain.ServiceConfiguration
	dependencies       []domain.ServiceReference
	dependents         []domain.ServiceReference
	statuses           map[string]domain.RefinedStatus // firstSeen -> status
	historyInitialized bool
}

// Repository is the in-memory source of truth for configurations, edges and
// status history. Entries are created the first time a configuration is set
// and are never evicted.
//
// Observers registered with Subscribe run synchronously after every
// notifying mutation, once the write lock has been released.
type Repository struct {
	mu         sync.RWMutex
	entries    map[domain.ServiceKey]*entry
	visible    []domain.ServiceKey
	lastChange time.Time

	obsMu     sync.Mutex
	observers map[uint64]func()
	nextObsID uint64
}

// New creates an empty repository.
func New() *Repository {
	return &Repository{
		entries:   make(map[domain.ServiceKey]*entry),
		observers: make(map[uint64]func()),
	}
}

// Subscribe registers fn to be called after every change. Notifications are
// not replayed: a late subscriber must read current state itself.
// The returned function unregisters fn.
func (r *Repository) Subscribe(fn func()) (unsubscribe func()) {
	r.obsMu.Lock()
	id := r.nextObsID
	r.nextObsID++
	r.observers[id] = fn
	r.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.obsMu.Lock()
			delete(r.observers, id)
			r.obsMu.Unlock()
		})
	}
}

func (r *Repository) notify() {
	r.obsMu.Lock()
	observers := make([]func(), 0, len(r.observers))
	for _, fn := range r.observers {
		observers = append(observers, fn)
	}
	r.obsMu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

// ─────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────

// SetConfiguration registers or updates a configuration. Edges, statuses
// and the history flag of an existing entry are preserved.
func (r *Repository) SetConfiguration(cfg domain.ServiceConfiguration) {
	r.mu.Lock()
	r.setConfigurationLocked(cfg)
	r.lastChange = time.Now()
	r.mu.Unlock()

	r.notify()
}

func (r *Repository) setConfigurationLocked(cfg domain.ServiceConfiguration) {
	if e, ok := r.entries[cfg.Key()]; ok {
		e.configuration = cfg
		return
	}
	r.entries[cfg.Key()] = &entry{
		configuration: cfg,
		statuses:      make(map[string]domain.RefinedStatus),
	}
}

// SetVisibleConfigurations registers every configuration, then replaces the
// visible list with their keys in the given order.
func (r *Repository) SetVisibleConfigurations(cfgs []domain.ServiceConfiguration) {
	for _, cfg := range cfgs {
		r.SetConfiguration(cfg)
	}

	visible := make([]domain.ServiceKey, 0, len(cfgs))
	for _, cfg := range cfgs {
		visible = append(visible, cfg.Key())
	}

	r.mu.Lock()
	r.visible = visible
	r.lastChange = time.Now()
	r.mu.Unlock()

	r.notify()
}

// SetDependencies replaces the dependency edges of a known service.
// It reports false, and does nothing, for an unknown key.
func (r *Repository) SetDependencies(key domain.ServiceKey, refs []domain.ServiceReference) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		return false
	}
	e.dependencies = append([]domain.ServiceReference(nil), refs...)
	return true
}

// SetDependents replaces the dependent edges of a known service.
// It reports false, and does nothing, for an unknown key.
func (r *Repository) SetDependents(key domain.ServiceKey, refs []domain.ServiceReference) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		return false
	}
	e.dependents = append([]domain.ServiceReference(nil), refs...)
	return true
}

// StoreStatus upserts one record by FirstSeen. Records for services whose
// configuration is not known yet are dropped without notification: once the
// service is observed its history gets initialized anyway.
func (r *Repository) StoreStatus(status domain.RefinedStatus) bool {
	r.mu.Lock()
	e, ok := r.entries[status.Key()]
	if !ok {
		r.mu.Unlock()
		return false
	}
	e.statuses[status.FirstSeen] = status
	r.lastChange = time.Now()
	r.mu.Unlock()

	r.notify()
	return true
}

// StoreHistory upserts every record of a known service and marks its history
// initialized, even when history is empty.
// It reports false, and does nothing, for an unknown key.
func (r *Repository) StoreHistory(key domain.ServiceKey, history []domain.RefinedStatus) bool {
	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		r.mu.Unlock()
		return false
	}
	for _, status := range history {
		e.statuses[status.FirstSeen] = status
	}
	e.historyInitialized = true
	r.lastChange = time.Now()
	r.mu.Unlock()

	r.notify()
	return true
}

// ─────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────

// IsHistoryInitialized is false for unknown keys.
func (r *Repository) IsHistoryInitialized(key domain.ServiceKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[key]
	return ok && e.historyInitialized
}

// View runs fn with the read lock held, so every read made through the
// Snapshot sees the same state. fn must not call back into r.
func (r *Repository) View(fn func(Snapshot)) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn(Snapshot{r: r})
}

// Configuration returns the configuration stored for key.
func (r *Repository) Configuration(key domain.ServiceKey) (domain.ServiceConfiguration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Snapshot{r: r}.Configuration(key)
}

// VisibleConfigurations returns the visible configurations in listing order.
func (r *Repository) VisibleConfigurations() []domain.ServiceConfiguration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Snapshot{r: r}.VisibleConfigurations()
}

// Dependencies returns a copy of the dependency edges of key.
func (r *Repository) Dependencies(key domain.ServiceKey) []domain.ServiceReference {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Snapshot{r: r}.Dependencies(key)
}

// Dependents returns a copy of the dependent edges of key.
func (r *Repository) Dependents(key domain.ServiceKey) []domain.ServiceReference {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Snapshot{r: r}.Dependents(key)
}

// Statuses returns every stored record of key, oldest first.
// A service right after its creation may have none.
func (r *Repository) Statuses(key domain.ServiceKey) []domain.RefinedStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Snapshot{r: r}.Statuses(key)
}

// Count returns the number of known services.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// LastChange returns the time of the last notifying mutation.
func (r *Repository) LastChange() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lastChange
}
