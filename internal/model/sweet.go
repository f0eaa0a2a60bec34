package model

import (
	"fmt"
	"strings"
	"time"
)

// Sweet is one inventory line.
type Sweet struct {
	ID        string    `json:"_id" gorm:"type:char(36);primaryKey" bson:"_id"`
	Name      string    `json:"name" gorm:"size:255;not null;index" bson:"name"`
	Category  string    `json:"category" gorm:"size:255;not null;index" bson:"category"`
	Price     float64   `json:"price" gorm:"not null" bson:"price"`
	Quantity  int       `json:"quantity" gorm:"not null;default:0" bson:"quantity"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`

	// Lower-cased copies of Name and Category that search matches against.
	NameKey     string `json:"-" gorm:"size:255;not null;default:'';index" bson:"name_key"`
	CategoryKey string `json:"-" gorm:"size:255;not null;default:'';index" bson:"category_key"`
}

// SearchKey folds v the way stored search keys are folded.
func SearchKey(v string) string {
	return strings.ToLower(v)
}

// SetSearchKeys refreshes NameKey and CategoryKey from Name and Category.
func (s *Sweet) SetSearchKeys() {
	s.NameKey = SearchKey(s.Name)
	s.CategoryKey = SearchKey(s.Category)
}

// Validate checks the field invariants every persisted sweet must satisfy.
func (s *Sweet) Validate() error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return fmt.Errorf("name is required")
	case strings.TrimSpace(s.Category) == "":
		return fmt.Errorf("category is required")
	case s.Price < 0:
		return fmt.Errorf("price must not be negative")
	case s.Quantity < 0:
		return fmt.Errorf("quantity must not be negative")
	}
	return nil
}

// SweetPatch carries a partial update; nil fields are left unchanged.
type SweetPatch struct {
	Name     *string
	Category *string
	Price    *float64
	Quantity *int
}

// Empty reports whether the patch changes nothing.
func (p SweetPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Price == nil && p.Quantity == nil
}

// ApplyTo returns a copy of s with the patch merged in.
func (p SweetPatch) ApplyTo(s Sweet) Sweet {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.Quantity != nil {
		s.Quantity = *p.Quantity
	}
	return s
}

// SweetFilter is a conjunctive search. Name and Category are case-insensitive
// substring matches; price bounds are inclusive.
type SweetFilter struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}
