package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSweetPatch_ApplyTo(t *testing.T) {
	base := Sweet{ID: "id", Name: "Ladoo", Category: "Classic", Price: 20, Quantity: 5}
	price := 25.5
	qty := 0

	got := SweetPatch{Price: &price, Quantity: &qty}.ApplyTo(base)

	assert.Equal(t, "Ladoo", got.Name)
	assert.Equal(t, "Classic", got.Category)
	assert.Equal(t, 25.5, got.Price)
	assert.Equal(t, 0, got.Quantity)
	assert.Equal(t, 5, base.Quantity, "original must not be modified")
}

func TestSweet_Validate(t *testing.T) {
	empty := ""
	neg := -1

	assert.NoError(t, (&Sweet{Name: "Barfi", Category: "Milk", Price: 0, Quantity: 0}).Validate())

	s := SweetPatch{Name: &empty}.ApplyTo(Sweet{Name: "Barfi", Category: "Milk"})
	assert.Error(t, s.Validate())

	s = SweetPatch{Quantity: &neg}.ApplyTo(Sweet{Name: "Barfi", Category: "Milk"})
	assert.Error(t, s.Validate())

	assert.Error(t, (&Sweet{Name: "Barfi", Category: "Milk", Price: -0.5}).Validate())
	assert.True(t, SweetPatch{}.Empty())
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("Admin")
	assert.NoError(t, err)
	assert.True(t, r.IsAdmin())

	r, err = ParseRole("User")
	assert.NoError(t, err)
	assert.False(t, r.IsAdmin())

	_, err = ParseRole("admin")
	assert.Error(t, err)
}

func TestSweet_SetSearchKeys(t *testing.T) {
	s := Sweet{Name: "Crème Brûlée", Category: "Pâtisserie"}
	s.SetSearchKeys()
	assert.Equal(t, "crème brûlée", s.NameKey)
	assert.Equal(t, "pâtisserie", s.CategoryKey)
	assert.Equal(t, SearchKey("ÉCLAIR"), SearchKey("éclair"))
}
