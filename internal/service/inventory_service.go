package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"sweetshop/internal/cache"
	apperrors "sweetshop/internal/errors"
	"sweetshop/internal/events"
	"sweetshop/internal/logging"
	"sweetshop/internal/model"
	"sweetshop/internal/repository"
)

// The cached listing lives under a key derived from a generation counter. Mutations
// bump the counter, so a listing read before a mutation can only ever be written
// under a generation nobody reads any more.
const (
	listGenerationKey = "sweets:gen"
	listCacheTTL      = time.Minute
)

func listCacheKey(gen int64) string {
	return fmt.Sprintf("sweets:all:%d", gen)
}

// SweetInput is the payload of Add. Price and Quantity are pointers so that an
// absent field can be told apart from zero.
type SweetInput struct {
	Name     string
	Category string
	Price    *float64
	Quantity *int
}

// InventoryService handles inventory operations.
type InventoryService interface {
	Add(ctx context.Context, in SweetInput) (*model.Sweet, error)
	Get(ctx context.Context, id string) (*model.Sweet, error)
	List(ctx context.Context) ([]model.Sweet, error)
	Search(ctx context.Context, filter model.SweetFilter) ([]model.Sweet, error)
	Update(ctx context.Context, id string, patch model.SweetPatch) (*model.Sweet, error)
	Delete(ctx context.Context, id string) error
	Purchase(ctx context.Context, id string) (*model.Sweet, error)
	Restock(ctx context.Context, id string, amount int) (*model.Sweet, error)
}

type inventoryService struct {
	repo      repository.SweetRepository
	cache     *cache.Client
	publisher events.Publisher
	now       func() time.Time
}

// NewInventoryService creates a new inventory service. cache may be nil.
func NewInventoryService(repo repository.SweetRepository, cache *cache.Client, publisher events.Publisher) InventoryService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &inventoryService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		now:       time.Now,
	}
}

// Add validates and persists a new sweet.
func (s *inventoryService) Add(ctx context.Context, in SweetInput) (*model.Sweet, error) {
	if blank(in.Name) || blank(in.Category) || in.Price == nil || in.Quantity == nil {
		return nil, apperrors.ErrInvalidSweet
	}

	sweet := &model.Sweet{
		Name:     in.Name,
		Category: in.Category,
		Price:    *in.Price,
		Quantity: *in.Quantity,
	}
	if err := sweet.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidSweet, err)
	}

	if err := s.repo.Create(ctx, sweet); err != nil {
		return nil, fmt.Errorf("create sweet: %w", err)
	}

	s.changed(ctx, events.SweetCreated, sweet, 0)
	return sweet, nil
}

// Get returns one sweet by id.
func (s *inventoryService) Get(ctx context.Context, id string) (*model.Sweet, error) {
	key, err := ParseSweetID(id)
	if err != nil {
		return nil, err
	}
	sweet, err := s.repo.FindByID(ctx, key)
	if err != nil {
		return nil, translate("get sweet", err)
	}
	return sweet, nil
}

// List returns every sweet in store order, served from cache when possible.
func (s *inventoryService) List(ctx context.Context) ([]model.Sweet, error) {
	gen, cacheable := s.cache.Counter(ctx, listGenerationKey)
	if cacheable {
		var cached []model.Sweet
		if s.cache.GetJSON(ctx, listCacheKey(gen), &cached) {
			return cached, nil
		}
	}

	sweets, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sweets: %w", err)
	}

	if cacheable {
		_ = s.cache.SetJSON(ctx, listCacheKey(gen), sweets, listCacheTTL)
	}
	return sweets, nil
}

// Search returns every sweet matching all given criteria. An empty result is not an error.
func (s *inventoryService) Search(ctx context.Context, filter model.SweetFilter) ([]model.Sweet, error) {
	filter.Name = strings.TrimSpace(filter.Name)
	filter.Category = strings.TrimSpace(filter.Category)

	sweets, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search sweets: %w", err)
	}
	return sweets, nil
}

// Update merges patch into the stored sweet, re-validates and persists it.
func (s *inventoryService) Update(ctx context.Context, id string, patch model.SweetPatch) (*model.Sweet, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := patch.ApplyTo(*current)
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidSweet, err)
	}

	updated, err := s.repo.Update(ctx, current.ID, patch)
	if err != nil {
		return nil, translate("update sweet", err)
	}

	s.changed(ctx, events.SweetUpdated, updated, 0)
	return updated, nil
}

// Delete removes a sweet.
func (s *inventoryService) Delete(ctx context.Context, id string) error {
	key, err := ParseSweetID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		return translate("delete sweet", err)
	}

	s.changed(ctx, events.SweetDeleted, &model.Sweet{ID: key}, 0)
	return nil
}

// Purchase takes one unit out of stock atomically.
func (s *inventoryService) Purchase(ctx context.Context, id string) (*model.Sweet, error) {
	key, err := ParseSweetID(id)
	if err != nil {
		return nil, err
	}

	sweet, err := s.repo.Decrement(ctx, key)
	if err != nil {
		return nil, translate("purchase sweet", err)
	}

	s.changed(ctx, events.SweetPurchased, sweet, -1)
	return sweet, nil
}

// Restock adds amount units atomically. amount must be positive.
func (s *inventoryService) Restock(ctx context.Context, id string, amount int) (*model.Sweet, error) {
	key, err := ParseSweetID(id)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be a positive integer", apperrors.ErrInvalidSweet)
	}

	sweet, err := s.repo.Increment(ctx, key, amount)
	if err != nil {
		return nil, translate("restock sweet", err)
	}

	s.changed(ctx, events.SweetRestocked, sweet, amount)
	return sweet, nil
}

// changed runs after every successful mutation: the listing generation moves on and an
// event is published. Neither step can fail the request.
func (s *inventoryService) changed(ctx context.Context, eventType string, sweet *model.Sweet, delta int) {
	_ = s.cache.Incr(ctx, listGenerationKey)

	ev := events.Event{
		Type:     eventType,
		SweetID:  sweet.ID,
		Name:     sweet.Name,
		Quantity: sweet.Quantity,
		Delta:    delta,
		At:       s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("publish inventory event", "type", eventType, "sweet_id", sweet.ID, "error", err)
	}
}

// ParseSweetID normalises a sweet id. Malformed keys can never match a record and
// fail with ErrNotFound.
func ParseSweetID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", apperrors.ErrNotFound
	}
	return parsed.String(), nil
}

func translate(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrRecordNotFound):
		return apperrors.ErrNotFound
	case errors.Is(err, repository.ErrInsufficientStock):
		return apperrors.ErrOutOfStock
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
