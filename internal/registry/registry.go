// Package registry holds every group in the process, keyed by group ID.
// It routes; all business rules live in lifecycle.
package registry

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mmynk/chitfund/internal/auction"
	"github.com/mmynk/chitfund/internal/lifecycle"
	"github.com/mmynk/chitfund/internal/membership"
	"github.com/mmynk/chitfund/internal/models"
)

// Registry is safe for concurrent use. Its lock only covers the map; groups
// lock themselves.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]*lifecycle.Group
	order  []string
	engine *auction.Engine
}

// New creates an empty registry whose groups run auctions on engine.
func New(engine *auction.Engine) *Registry {
	return &Registry{
		groups: make(map[string]*lifecycle.Group),
		engine: engine,
	}
}

// Engine returns the auction engine shared by all groups.
func (r *Registry) Engine() *auction.Engine {
	return r.engine
}

// Create builds a new group with a fresh ID and registers it.
func (r *Registry) Create(p membership.Params) (*lifecycle.Group, error) {
	g, err := lifecycle.New(uuid.New().String(), p, r.engine)
	if err != nil {
		return nil, err
	}
	if err := r.Add(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Add registers an existing group, e.g. one restored from storage.
func (r *Registry) Add(g *lifecycle.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.groups[g.ID()]; exists {
		return fmt.Errorf("%w: group %s already registered", models.ErrValidation, g.ID())
	}
	r.groups[g.ID()] = g
	r.order = append(r.order, g.ID())
	return nil
}

// Get looks up a group by ID.
func (r *Registry) Get(id string) (*lifecycle.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrGroupNotFound, id)
	}
	return g, nil
}

// List returns all groups in registration order.
func (r *Registry) List() []*lifecycle.Group {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*lifecycle.Group, len(r.order))
	for i, id := range r.order {
		out[i] = r.groups[id]
	}
	return out
}

// Len returns the number of registered groups.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups)
}

// Profile aggregates member's participation across every registered group.
func (r *Registry) Profile(member string) *models.MemberProfile {
	p := &models.MemberProfile{Member: member}
	for _, g := range r.List() {
		pt, ok := g.Participation(member)
		if !ok {
			continue
		}
		p.TotalGroups++
		p.TotalContributed += pt.Contributed
		p.TotalPayoutReceived += pt.PayoutReceived
		p.TotalDiscountReceived += pt.DiscountReceived
		p.Participations = append(p.Participations, pt)
	}
	return p
}
