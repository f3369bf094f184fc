package service

import (
	"todo-planner/internal/model"
)

func (s *TaskService) Categories() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Category(nil), s.categories...)
}

// ResolveCategory returns the category with id, falling back to the default
// category when the reference is dangling.
func (s *TaskService) ResolveCategory(id string) model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.categoryIndexLocked(id); i >= 0 {
		return s.categories[i]
	}
	if i := s.categoryIndexLocked(model.FallbackCategoryID); i >= 0 {
		return s.categories[i]
	}
	for _, c := range model.DefaultCategories() {
		if c.ID == model.FallbackCategoryID {
			return c
		}
	}
	return model.Category{ID: model.FallbackCategoryID}
}

func (s *TaskService) AddCategory(draft model.CategoryDraft) model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	category := model.Category{
		ID:    s.newID(),
		Name:  draft.Name,
		Color: draft.Color,
		Icon:  draft.Icon,
	}
	s.categories = append(s.categories, category)
	s.commitLocked()
	return category
}

func (s *TaskService) UpdateCategory(id string, patch model.CategoryPatch) (model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.categoryIndexLocked(id)
	if i < 0 {
		return model.Category{}, model.ErrCategoryNotFound
	}
	updated := s.categories[i]
	patch.Apply(&updated)
	s.categories[i] = updated

	s.commitLocked()
	return updated, nil
}

// DeleteCategory removes the category and moves its tasks to the fallback
// category. The fallback category itself cannot be deleted.
func (s *TaskService) DeleteCategory(id string) error {
	if id == model.FallbackCategoryID {
		return model.ErrFallbackCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.categoryIndexLocked(id)
	if i < 0 {
		return model.ErrCategoryNotFound
	}
	s.categories = append(s.categories[:i:i], s.categories[i+1:]...)

	now := s.clock.Now()
	for j := range s.tasks {
		if s.tasks[j].Category != id {
			continue
		}
		updated := s.tasks[j].Clone()
		updated.Category = model.FallbackCategoryID
		updated.UpdatedAt = now
		s.tasks[j] = updated
	}

	s.commitLocked()
	return nil
}

func (s *TaskService) categoryIndexLocked(id string) int {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return i
		}
	}
	return -1
}
