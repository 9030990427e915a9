package domain

import "github.com/google/uuid"

// Category groups transactions. Categories form a two-level hierarchy: a
// category with no parent is a primary category, one with a parent is a
// subcategory of it.
type Category struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	ParentCategory *uuid.UUID `json:"parentCategory,omitempty"`
	Owner          uuid.UUID  `json:"owner"`
}

// CategoryInput is the write shape for categories.
type CategoryInput struct {
	Name           string     `json:"name"`
	ParentCategory *uuid.UUID `json:"parentCategory,omitempty"`
	Owner          uuid.UUID  `json:"owner"`
}

// DecodeCategoryInput converts a CategoryInput into a Category under id.
func DecodeCategoryInput(id uuid.UUID, in CategoryInput) Category {
	return Category{
		ID:             id,
		Name:           in.Name,
		ParentCategory: in.ParentCategory,
		Owner:          in.Owner,
	}
}

// Subcategory is the nested shape used when assembling the hierarchy.
type Subcategory struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	ParentCategory uuid.UUID `json:"parentCategory"`
	Owner          uuid.UUID `json:"owner"`
}

// PrimaryCategory is a top-level category with its subcategories inlined.
type PrimaryCategory struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Owner         uuid.UUID     `json:"owner"`
	Subcategories []Subcategory `json:"subcategories"`
}

// System categories are visible to every owner and addressed by fixed ids.
// They are seeded at startup and never created per owner.
var (
	Uncategorized = Category{
		ID:    uuid.MustParse("6c47e0cc-b47c-4661-bda3-8e8077fed6c7"),
		Name:  "Uncategorized",
		Owner: SystemUser.ID,
	}
	Income = Category{
		ID:    uuid.MustParse("f288ecf9-52a6-4a61-af1e-d06803c8cbc1"),
		Name:  "Income",
		Owner: SystemUser.ID,
	}
	Transfer = Category{
		ID:    uuid.MustParse("72975daf-9e74-45ba-bee2-c5b7fa17ebbb"),
		Name:  "Transfer",
		Owner: SystemUser.ID,
	}
)

// SystemCategories lists every well-known category.
var SystemCategories = []Category{Uncategorized, Income, Transfer}
