package log

import "sync"

// Registry hands out loggers by name.
// The first logger registered under a name wins; later registrations are no-ops.
type Registry struct {
	mu      sync.Mutex
	loggers map[string]Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{loggers: make(map[string]Logger)}
}

// Register stores logger under name unless the name is already taken.
// It returns the logger that is registered under name after the call and
// whether the given logger was the one stored.
func (r *Registry) Register(name string, logger Logger) (Logger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.loggers[name]; ok {
		return existing, false
	}
	if logger == nil {
		logger = NewNoopLogger()
	}
	r.loggers[name] = logger
	return logger, true
}

// Get returns the logger registered under name.
func (r *Registry) Get(name string) (Logger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.loggers[name]
	return l, ok
}

// Len returns the number of registered loggers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.loggers)
}
