package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetshop/internal/cache"
	"sweetshop/internal/db"
	apperrors "sweetshop/internal/errors"
	"sweetshop/internal/events"
	"sweetshop/internal/model"
	"sweetshop/internal/repository"
	"sweetshop/internal/service"
)

type fixture struct {
	svc      service.InventoryService
	repo     repository.SweetRepository
	recorder *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb, err := db.OpenSQLiteMemory(context.Background())
	require.NoError(t, err)
	repo := repository.NewSweetRepository(gdb)
	rec := &events.Recorder{}
	return &fixture{
		svc:      service.NewInventoryService(repo, nil, rec),
		repo:     repo,
		recorder: rec,
	}
}

func (f *fixture) add(t *testing.T, name, category string, price float64, qty int) *model.Sweet {
	t.Helper()
	s, err := f.svc.Add(context.Background(), service.SweetInput{Name: name, Category: category, Price: &price, Quantity: &qty})
	require.NoError(t, err)
	return s
}

func ptr[T any](v T) *T { return &v }

const missingID = "0190f5a2-0000-7000-8000-0000000000ff"

func TestInventoryService_Add(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.add(t, "Kaju Katli", "Cashew", 100, 0)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 0, s.Quantity)

	tests := []struct {
		name string
		in   service.SweetInput
	}{
		{"missing name", service.SweetInput{Category: "c", Price: ptr(1.0), Quantity: ptr(1)}},
		{"missing category", service.SweetInput{Name: "n", Price: ptr(1.0), Quantity: ptr(1)}},
		{"missing price", service.SweetInput{Name: "n", Category: "c", Quantity: ptr(1)}},
		{"missing quantity", service.SweetInput{Name: "n", Category: "c", Price: ptr(1.0)}},
		{"negative price", service.SweetInput{Name: "n", Category: "c", Price: ptr(-1.0), Quantity: ptr(1)}},
		{"negative quantity", service.SweetInput{Name: "n", Category: "c", Price: ptr(1.0), Quantity: ptr(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Add(ctx, tt.in)
			assert.ErrorIs(t, err, apperrors.ErrInvalidSweet)
		})
	}

	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, []string{events.SweetCreated}, f.recorder.Types())
}

func TestInventoryService_Search(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "Rasgulla", "Syrup", 30, 1)
	f.add(t, "Jalebi", "Syrup", 50, 1)
	f.add(t, "Ladoo", "Classic", 100, 1)

	got, err := f.svc.Search(ctx, model.SweetFilter{Category: "Syrup"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Rasgulla", got[0].Name)
	assert.Equal(t, "Jalebi", got[1].Name)

	got, err = f.svc.Search(ctx, model.SweetFilter{MinPrice: ptr(40.0), MaxPrice: ptr(60.0)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 50.0, got[0].Price)

	got, err = f.svc.Search(ctx, model.SweetFilter{Name: "barfi"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestInventoryService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.add(t, "Barfi", "Milk", 20, 5)

	updated, err := f.svc.Update(ctx, s.ID, model.SweetPatch{Name: ptr("Kaju Barfi"), Quantity: ptr(12)})
	require.NoError(t, err)
	assert.Equal(t, "Kaju Barfi", updated.Name)
	assert.Equal(t, "Milk", updated.Category)
	assert.Equal(t, 12, updated.Quantity)

	_, err = f.svc.Update(ctx, s.ID, model.SweetPatch{Quantity: ptr(-3)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidSweet)

	_, err = f.svc.Update(ctx, s.ID, model.SweetPatch{Name: ptr("")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidSweet)

	_, err = f.svc.Update(ctx, "not-an-id", model.SweetPatch{Name: ptr("x")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.Update(ctx, missingID, model.SweetPatch{Name: ptr("x")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	got, err := f.svc.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Quantity)
}

func TestInventoryService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.add(t, "Barfi", "Milk", 20, 5)

	require.NoError(t, f.svc.Delete(ctx, s.ID))
	_, err := f.svc.Get(ctx, s.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.ErrorIs(t, f.svc.Delete(ctx, s.ID), apperrors.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, "42"), apperrors.ErrNotFound)
}

func TestInventoryService_PurchaseDepletesThenBlocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.add(t, "Peda", "Milk", 10, 3)

	for want := 2; want >= 0; want-- {
		got, err := f.svc.Purchase(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.Quantity)
	}

	for i := 0; i < 3; i++ {
		_, err := f.svc.Purchase(ctx, s.ID)
		assert.ErrorIs(t, err, apperrors.ErrOutOfStock)
	}

	got, err := f.svc.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)

	_, err = f.svc.Purchase(ctx, missingID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestInventoryService_Restock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.add(t, "Peda", "Milk", 10, 3)

	for _, amount := range []int{0, -1, -50} {
		_, err := f.svc.Restock(ctx, s.ID, amount)
		assert.ErrorIs(t, err, apperrors.ErrInvalidSweet)
	}
	got, err := f.svc.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)

	got, err = f.svc.Restock(ctx, s.ID, 17)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Quantity)

	_, err = f.svc.Restock(ctx, missingID, 5)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	evs := f.recorder.Events()
	last := evs[len(evs)-1]
	assert.Equal(t, events.SweetRestocked, last.Type)
	assert.Equal(t, 17, last.Delta)
	assert.Equal(t, 20, last.Quantity)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.Event) error {
	return errors.New("broker down")
}
func (failingPublisher) Close() error { return nil }

func TestInventoryService_PublishFailureDoesNotFailRequest(t *testing.T) {
	gdb, err := db.OpenSQLiteMemory(context.Background())
	require.NoError(t, err)
	svc := service.NewInventoryService(repository.NewSweetRepository(gdb), nil, failingPublisher{})

	s, err := svc.Add(context.Background(), service.SweetInput{Name: "n", Category: "c", Price: ptr(1.0), Quantity: ptr(1)})
	require.NoError(t, err)
	_, err = svc.Purchase(context.Background(), s.ID)
	assert.NoError(t, err)
}

// pausingRepo holds the first armed List call after it has read the store, until
// release is closed.
type pausingRepo struct {
	repository.SweetRepository
	armed   atomic.Bool
	listed  chan struct{}
	release chan struct{}
}

func (r *pausingRepo) List(ctx context.Context) ([]model.Sweet, error) {
	sweets, err := r.SweetRepository.List(ctx)
	if r.armed.CompareAndSwap(true, false) {
		close(r.listed)
		<-r.release
	}
	return sweets, err
}

func TestInventoryService_ListCacheNotStaleAfterConcurrentPurchase(t *testing.T) {
	ctx := context.Background()
	gdb, err := db.OpenSQLiteMemory(ctx)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	cacheClient := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cacheClient.Close() })

	repo := &pausingRepo{
		SweetRepository: repository.NewSweetRepository(gdb),
		listed:          make(chan struct{}),
		release:         make(chan struct{}),
	}
	svc := service.NewInventoryService(repo, cacheClient, nil)

	sweet, err := svc.Add(ctx, service.SweetInput{Name: "Peda", Category: "Milk", Price: ptr(10.0), Quantity: ptr(5)})
	require.NoError(t, err)

	type result struct {
		sweets []model.Sweet
		err    error
	}
	done := make(chan result, 1)
	repo.armed.Store(true)
	go func() {
		sweets, err := svc.List(ctx)
		done <- result{sweets, err}
	}()

	<-repo.listed
	_, err = svc.Purchase(ctx, sweet.ID)
	require.NoError(t, err)
	close(repo.release)

	first := <-done
	require.NoError(t, first.err)

	for i := 0; i < 2; i++ {
		got, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 4, got[0].Quantity)
	}
}

func TestInventoryService_ListServedFromCache(t *testing.T) {
	ctx := context.Background()
	gdb, err := db.OpenSQLiteMemory(ctx)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	cacheClient := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cacheClient.Close() })

	repo := repository.NewSweetRepository(gdb)
	svc := service.NewInventoryService(repo, cacheClient, nil)
	sweet, err := svc.Add(ctx, service.SweetInput{Name: "Peda", Category: "Milk", Price: ptr(10.0), Quantity: ptr(5)})
	require.NoError(t, err)

	got, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	// Written behind the service's back, so only a cache miss would see it.
	_, err = repo.Increment(ctx, sweet.ID, 100)
	require.NoError(t, err)
	got, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, got[0].Quantity)

	_, err = svc.Restock(ctx, sweet.ID, 1)
	require.NoError(t, err)
	got, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 106, got[0].Quantity)
}
