// Package health tracks whether the components of the process have finished
// starting.
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ComponentManager registers components that must report ready.
type ComponentManager interface {
	// AddComponent registers name and returns the function that marks it ready.
	AddComponent(name string) func()
}

// ReadinessWaiter blocks until every registered component is ready.
type ReadinessWaiter interface {
	WaitReady(ctx context.Context) error
}

// ReadinessChecker reports current readiness.
type ReadinessChecker interface {
	IsReady() bool
	Status() Status
}

type ComponentStatus struct {
	Name    string
	Ready   bool
	ReadyAt time.Time
}

type Status struct {
	Ready      bool
	Components []ComponentStatus
}

// Readiness implements every interface of this package.
type Readiness struct {
	log *zap.Logger

	mu         sync.Mutex
	components map[string]*ComponentStatus
	sealed     bool
	ready      chan struct{}
	once       sync.Once
}

func NewReadiness(log *zap.Logger) *Readiness {
	return &Readiness{
		log:        log,
		components: make(map[string]*ComponentStatus),
		ready:      make(chan struct{}),
	}
}

func (r *Readiness) AddComponent(name string) func() {
	r.mu.Lock()
	if _, ok := r.components[name]; !ok {
		r.components[name] = &ComponentStatus{Name: name}
	}
	r.mu.Unlock()

	return func() { r.markReady(name) }
}

// Seal is called once startup has registered every component. Readiness can
// only be reached after sealing.
func (r *Readiness) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
	r.evaluate()
}

func (r *Readiness) markReady(name string) {
	r.mu.Lock()
	c, ok := r.components[name]
	if ok && !c.Ready {
		c.Ready = true
		c.ReadyAt = time.Now()
		r.log.Info("component ready", zap.String("component", name))
	}
	r.mu.Unlock()
	r.evaluate()
}

func (r *Readiness) evaluate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sealed {
		return
	}
	for _, c := range r.components {
		if !c.Ready {
			return
		}
	}
	r.once.Do(func() {
		close(r.ready)
		r.log.Info("all components are ready", zap.Int("componentCount", len(r.components)))
	})
}

func (r *Readiness) IsReady() bool {
	select {
	case <-r.ready:
		return true
	default:
		return false
	}
}

func (r *Readiness) WaitReady(ctx context.Context) error {
	select {
	case <-r.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Readiness) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Status{Ready: r.IsReady(), Components: make([]ComponentStatus, 0, len(r.components))}
	for _, c := range r.components {
		st.Components = append(st.Components, *c)
	}
	sort.Slice(st.Components, func(i, j int) bool { return st.Components[i].Name < st.Components[j].Name })
	return st
}
