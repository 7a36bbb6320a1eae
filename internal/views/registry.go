// Package views keeps the server-side state of live list views and expense
// forms between htmx requests.
package views

import (
	"time"

	"github.com/google/uuid"

	"fintrack/internal/cache"
	"fintrack/internal/listing"
	applog "fintrack/internal/log"
	"fintrack/internal/submit"
)

// Closer is anything that must be torn down when it leaves the registry.
type Closer interface {
	Close()
}

// Store maps view IDs to instances. Entries expire after ttl without use
// and the least recently used one goes when the store is full; either way
// the instance is closed so its late responses are ignored.
type Store[T Closer] struct {
	kind   string
	items  *cache.LRUCache[T]
	logger *applog.Logger
}

func NewStore[T Closer](kind string, maxSize int, ttl time.Duration, logger *applog.Logger) *Store[T] {
	if logger == nil {
		logger = applog.Discard()
	}
	s := &Store[T]{
		kind:   kind,
		logger: logger.WithComponent(applog.ComponentViews),
	}
	s.items = cache.NewLRUCache[T](maxSize, ttl, cache.WithEvictFunc[T](s.evicted))
	return s
}

func (s *Store[T]) evicted(id string, v T, reason cache.EvictReason) {
	v.Close()
	s.logger.Debug("View closed",
		"kind", s.kind,
		applog.FieldViewID, id,
		"reason", reason.String())
}

// Add registers v under a fresh ID.
func (s *Store[T]) Add(v T) string {
	id := uuid.NewString()
	s.items.Set(id, v)
	return id
}

// Get returns the instance for id. Malformed IDs never match.
func (s *Store[T]) Get(id string) (T, bool) {
	var zero T
	if _, err := uuid.Parse(id); err != nil {
		return zero, false
	}
	return s.items.Get(id)
}

// Close removes id and tears its instance down.
func (s *Store[T]) Close(id string) {
	s.items.Delete(id)
}

// Len reports how many instances are live.
func (s *Store[T]) Len() int {
	return s.items.Size()
}

// CleanExpired lets a cache.Manager sweep the store.
func (s *Store[T]) CleanExpired() int {
	return s.items.CleanExpired()
}

// CloseAll tears every instance down.
func (s *Store[T]) CloseAll() {
	s.items.Purge()
}

// Registry groups the stores the web handlers use.
type Registry struct {
	Lists *Store[*listing.Controller]
	Forms *Store[*submit.FormInstance]
}

type Config struct {
	MaxSize int
	TTL     time.Duration
}

func NewRegistry(cfg Config, logger *applog.Logger) *Registry {
	return &Registry{
		Lists: NewStore[*listing.Controller]("list", cfg.MaxSize, cfg.TTL, logger),
		Forms: NewStore[*submit.FormInstance]("form", cfg.MaxSize, cfg.TTL, logger),
	}
}

// Register hands both stores to m for periodic expiry.
func (r *Registry) Register(m *cache.Manager) {
	m.Register(r.Lists)
	m.Register(r.Forms)
}

// Close tears down every live view.
func (r *Registry) Close() {
	r.Lists.CloseAll()
	r.Forms.CloseAll()
}
