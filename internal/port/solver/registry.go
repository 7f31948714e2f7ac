package solver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownSolver is matched by *UnknownSolverError.
	ErrUnknownSolver = errors.New("unknown solver")
	// ErrDuplicateSolver is returned when a name is registered twice.
	ErrDuplicateSolver = errors.New("duplicate solver registration")
	// ErrRegistrySealed is returned by Register after Seal.
	ErrRegistrySealed = errors.New("solver registry is sealed")
)

// UnknownSolverError reports a requested name that is not registered,
// together with the names that are.
type UnknownSolverError struct {
	Name  string
	Known []string
}

func (e *UnknownSolverError) Error() string {
	return fmt.Sprintf("solver with name %q is not registered (registered: %s)", e.Name, strings.Join(e.Known, ", "))
}

func (e *UnknownSolverError) Is(target error) bool { return target == ErrUnknownSolver }

// Registry maps solver names to adapters. It is populated at startup and
// sealed before the first run; after Seal it is read-only.
type Registry struct {
	mu      sync.RWMutex
	solvers map[string]Solver
	sealed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{solvers: make(map[string]Solver)}
}

// Register makes a solver available under its Name.
func (r *Registry) Register(s Solver) error {
	if s == nil || s.Name() == "" {
		return errors.New("solver: register requires a named solver")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register %q: %w", s.Name(), ErrRegistrySealed)
	}
	if _, exists := r.solvers[s.Name()]; exists {
		return fmt.Errorf("register %q: %w", s.Name(), ErrDuplicateSolver)
	}
	r.solvers[s.Name()] = s
	return nil
}

// MustRegister is like Register but panics on error.
// It is meant for wiring built-in solvers at startup.
func (r *Registry) MustRegister(solvers ...Solver) {
	for _, s := range solvers {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Seal makes the registry immutable.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Lookup returns the solver registered under name.
func (r *Registry) Lookup(name string) (Solver, error) {
	r.mu.RLock()
	s, ok := r.solvers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownSolverError{Name: name, Known: r.Names()}
	}
	return s, nil
}

// Names returns the registered solver names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.solvers))
	for name := range r.solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Available returns the registered solvers whose external program is
// installed. Solvers that cannot tell are assumed available.
func (r *Registry) Available() []string {
	var names []string
	for _, name := range r.Names() {
		s, _ := r.Lookup(name)
		if p, ok := s.(Prober); ok && !p.Available() {
			continue
		}
		names = append(names, name)
	}
	return names
}
