package model

import "strings"

// FallbackCategoryID receives the tasks of a deleted category.
const FallbackCategoryID = "personal"

// Category groups tasks by area (work, health, study, etc.).
type Category struct {
	ID    string `json:"id" gorm:"primaryKey"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon,omitempty"`
}

// DefaultCategories is the category set of a fresh install.
func DefaultCategories() []Category {
	return []Category{
		{ID: "work", Name: "Work", Color: "#6366F1", Icon: "briefcase"},
		{ID: "personal", Name: "Personal", Color: "#8B5CF6", Icon: "user"},
		{ID: "shopping", Name: "Shopping", Color: "#EC4899", Icon: "shopping-cart"},
		{ID: "health", Name: "Health", Color: "#10B981", Icon: "heart"},
		{ID: "learning", Name: "Learning", Color: "#F59E0B", Icon: "book"},
	}
}

type CategoryDraft struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (d CategoryDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

type CategoryPatch struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Icon  *string `json:"icon"`
}

func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
}
