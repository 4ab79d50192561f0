package testutil

import (
	"github.com/skeletor601/BL4-SaveEditor/pkg/parts"
)

// NewRow returns a canonical row for test fixtures. The defaults describe a
// plain shotgun body; options override fields.
func NewRow(opts ...func(*parts.Row)) *parts.Row {
	r := &parts.Row{
		Name:       "Test Part",
		ItemType:   "Test Shotgun",
		PartType:   "Body",
		Effect:     "Deals damage.",
		WeaponType: "Shotgun",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithName sets the display name.
func WithName(name string) func(*parts.Row) {
	return func(r *parts.Row) { r.Name = name }
}

// WithItemType sets the item type label.
func WithItemType(s string) func(*parts.Row) {
	return func(r *parts.Row) { r.ItemType = s }
}

// WithPartType sets the part type.
func WithPartType(s string) func(*parts.Row) {
	return func(r *parts.Row) { r.PartType = s }
}

// WithEffect sets the effect text.
func WithEffect(s string) func(*parts.Row) {
	return func(r *parts.Row) { r.Effect = s }
}

// WithCategory sets the source category.
func WithCategory(s string) func(*parts.Row) {
	return func(r *parts.Row) { r.Category = s }
}

// WithManufacturer sets the manufacturer.
func WithManufacturer(s string) func(*parts.Row) {
	return func(r *parts.Row) { r.Manufacturer = s }
}

// WithWeaponType sets the weapon type.
func WithWeaponType(s string) func(*parts.Row) {
	return func(r *parts.Row) { r.WeaponType = s }
}

// WithCode sets the item code.
func WithCode(s string) func(*parts.Row) {
	return func(r *parts.Row) { r.Code = s }
}

// WithID sets the numeric ID.
func WithID(id int64) func(*parts.Row) {
	return func(r *parts.Row) { r.ID, r.HasID = id, true }
}
