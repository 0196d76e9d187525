package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Sokol111/ecommerce-product-sync/pkg/event"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Announcer publishes events without reporting the outcome.
// *publisher.Detached implements it.
type Announcer interface {
	Go(ctx context.Context, e event.Event)
}

// Service keeps products in memory. Row versions come from one counter
// shared by all products, so every write gets a higher version than any
// write before it.
type Service struct {
	announcer Announcer
	log       *zap.Logger

	mu       sync.RWMutex
	products map[int]Product
	lastID   int
	version  uint64
}

func NewService(announcer Announcer, log *zap.Logger) *Service {
	return &Service{
		announcer: announcer,
		log:       log.With(zap.String("component", "catalog")),
		products:  make(map[int]Product),
	}
}

// Create stores a new product and announces ProductCreated. The announcement
// is detached: a publish failure does not fail Create.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (Product, error) {
	if err := validate(cmd.Name, cmd.Price); err != nil {
		return Product{}, err
	}

	s.mu.Lock()
	s.lastID++
	s.version++
	p := Product{
		ID:         s.lastID,
		Name:       cmd.Name,
		Price:      cmd.Price,
		RowVersion: event.NewVersionToken(s.version),
	}
	s.products[p.ID] = p
	s.mu.Unlock()

	s.log.Debug("product created", zap.Int("id", p.ID), zap.Stringer("rowVersion", p.RowVersion))
	s.announcer.Go(ctx, &event.ProductCreated{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		VersionToken: p.RowVersion.Clone(),
	})
	return p.clone(), nil
}

// Update changes an existing product and announces ProductUpdated.
func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (Product, error) {
	if err := validate(cmd.Name, cmd.Price); err != nil {
		return Product{}, err
	}

	s.mu.Lock()
	current, ok := s.products[cmd.ID]
	if !ok {
		s.mu.Unlock()
		return Product{}, fmt.Errorf("%w: product %d", ErrProductNotFound, cmd.ID)
	}
	if !cmd.RowVersion.IsZero() && current.RowVersion.Compare(cmd.RowVersion) != 0 {
		s.mu.Unlock()
		return Product{}, fmt.Errorf("%w: product %d is at %s, expected %s",
			ErrVersionMismatch, cmd.ID, current.RowVersion, cmd.RowVersion)
	}
	s.version++
	p := Product{
		ID:         cmd.ID,
		Name:       cmd.Name,
		Price:      cmd.Price,
		RowVersion: event.NewVersionToken(s.version),
	}
	s.products[p.ID] = p
	s.mu.Unlock()

	s.log.Debug("product updated", zap.Int("id", p.ID), zap.Stringer("rowVersion", p.RowVersion))
	s.announcer.Go(ctx, &event.ProductUpdated{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		VersionToken: p.RowVersion.Clone(),
	})
	return p.clone(), nil
}

func (s *Service) Get(_ context.Context, id int) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: product %d", ErrProductNotFound, id)
	}
	return p.clone(), nil
}

// List returns all products ordered by id.
func (s *Service) List(context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	products := lo.Map(lo.Values(s.products), func(p Product, _ int) Product { return p.clone() })
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}
