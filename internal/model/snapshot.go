package model

// Snapshot is the full persisted state: tasks, categories and settings.
type Snapshot struct {
	Tasks      []Task     `json:"tasks"`
	Categories []Category `json:"categories"`
	Settings   Settings   `json:"settings"`
}

// DefaultSnapshot is the state of a fresh install.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Tasks:      []Task{},
		Categories: DefaultCategories(),
		Settings:   DefaultSettings(),
	}
}

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Tasks:      make([]Task, len(s.Tasks)),
		Categories: append([]Category(nil), s.Categories...),
		Settings:   s.Settings,
	}
	for i, t := range s.Tasks {
		out.Tasks[i] = t.Clone()
	}
	if out.Categories == nil {
		out.Categories = []Category{}
	}
	return out
}

// Stats summarizes productivity over the whole collection.
type Stats struct {
	TotalTodos        int     `json:"totalTodos"`
	CompletedTotal    int     `json:"completedTotal"`
	CompletedToday    int     `json:"completedToday"`
	CompletedThisWeek int     `json:"completedThisWeek"`
	CompletionRate    float64 `json:"completionRate"`
	CurrentStreak     int     `json:"currentStreak"`
	LongestStreak     int     `json:"longestStreak"`
}
