package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"sweetshop/internal/model"
)

// SweetRepository is the inventory store. Decrement and Increment must each be a
// single atomic store operation.
type SweetRepository interface {
	Create(ctx context.Context, sweet *model.Sweet) error
	FindByID(ctx context.Context, id string) (*model.Sweet, error)
	List(ctx context.Context) ([]model.Sweet, error)
	Search(ctx context.Context, filter model.SweetFilter) ([]model.Sweet, error)
	Update(ctx context.Context, id string, patch model.SweetPatch) (*model.Sweet, error)
	Delete(ctx context.Context, id string) error
	Decrement(ctx context.Context, id string) (*model.Sweet, error)
	Increment(ctx context.Context, id string, amount int) (*model.Sweet, error)
}

type sweetRepository struct {
	db *gorm.DB
}

// NewSweetRepository builds a GORM-backed repository.
func NewSweetRepository(db *gorm.DB) SweetRepository {
	return &sweetRepository{db: db}
}

func (r *sweetRepository) Create(ctx context.Context, sweet *model.Sweet) error {
	if sweet.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}
		sweet.ID = id
	}
	sweet.SetSearchKeys()
	return translateGormError(r.db.WithContext(ctx).Create(sweet).Error)
}

func (r *sweetRepository) FindByID(ctx context.Context, id string) (*model.Sweet, error) {
	var sweet model.Sweet
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&sweet).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &sweet, nil
}

func (r *sweetRepository) List(ctx context.Context) ([]model.Sweet, error) {
	sweets := make([]model.Sweet, 0)
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&sweets).Error; err != nil {
		return nil, err
	}
	return sweets, nil
}

func (r *sweetRepository) Search(ctx context.Context, filter model.SweetFilter) ([]model.Sweet, error) {
	q := r.db.WithContext(ctx).Model(&model.Sweet{})
	if filter.Name != "" {
		q = q.Where("name_key LIKE ? ESCAPE '!'", containsPattern(filter.Name))
	}
	if filter.Category != "" {
		q = q.Where("category_key LIKE ? ESCAPE '!'", containsPattern(filter.Category))
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}

	sweets := make([]model.Sweet, 0)
	if err := q.Order("id ASC").Find(&sweets).Error; err != nil {
		return nil, err
	}
	return sweets, nil
}

// Update writes only the patched columns so a concurrent purchase is never
// overwritten by a stale quantity.
func (r *sweetRepository) Update(ctx context.Context, id string, patch model.SweetPatch) (*model.Sweet, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
		updates["name_key"] = model.SearchKey(*patch.Name)
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
		updates["category_key"] = model.SearchKey(*patch.Category)
	}
	if patch.Price != nil {
		updates["price"] = *patch.Price
	}
	if patch.Quantity != nil {
		updates["quantity"] = *patch.Quantity
	}

	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(&model.Sweet{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, translateGormError(err)
		}
	}
	return r.FindByID(ctx, id)
}

func (r *sweetRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Sweet{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Decrement removes one unit in a single conditional UPDATE; the quantity guard in
// the WHERE clause makes concurrent purchases of the last unit race-free.
func (r *sweetRepository) Decrement(ctx context.Context, id string) (*model.Sweet, error) {
	res := r.db.WithContext(ctx).Model(&model.Sweet{}).
		Where("id = ? AND quantity > ?", id, 0).
		Update("quantity", gorm.Expr("quantity - ?", 1))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInsufficientStock
	}
	return r.FindByID(ctx, id)
}

func (r *sweetRepository) Increment(ctx context.Context, id string, amount int) (*model.Sweet, error) {
	res := r.db.WithContext(ctx).Model(&model.Sweet{}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", amount))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

// containsPattern builds a LIKE pattern over the folded search keys with '!' as the
// escape character, which every supported SQL dialect accepts without quoting rules
// of its own. Folding happens in Go so that non-ASCII letters match on every dialect.
func containsPattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(model.SearchKey(s)) + "%"
}
