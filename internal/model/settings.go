package model

import "strings"

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// View selects one of the filtered task lists.
type View string

const (
	ViewAll       View = "all"
	ViewToday     View = "today"
	ViewUpcoming  View = "upcoming"
	ViewCompleted View = "completed"
)

// ParseView maps a view name to a View. An empty name selects ViewAll.
func ParseView(raw string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(raw))); v {
	case "":
		return ViewAll, nil
	case ViewAll, ViewToday, ViewUpcoming, ViewCompleted:
		return v, nil
	default:
		return "", ErrInvalidView
	}
}

// Settings are the user preferences persisted with the collection.
type Settings struct {
	Theme               Theme `json:"theme"`
	DefaultView         View  `json:"defaultView"`
	EnableHaptics       bool  `json:"enableHaptics"`
	EnableNotifications bool  `json:"enableNotifications"`
	// AutoDeleteCompleted is the age in days after which completed tasks are
	// purged. Zero disables it.
	AutoDeleteCompleted int `json:"autoDeleteCompleted"`
}

func DefaultSettings() Settings {
	return Settings{
		Theme:               ThemeSystem,
		DefaultView:         ViewAll,
		EnableHaptics:       true,
		EnableNotifications: true,
		AutoDeleteCompleted: 0,
	}
}

type SettingsPatch struct {
	Theme               *Theme `json:"theme"`
	DefaultView         *View  `json:"defaultView"`
	EnableHaptics       *bool  `json:"enableHaptics"`
	EnableNotifications *bool  `json:"enableNotifications"`
	AutoDeleteCompleted *int   `json:"autoDeleteCompleted"`
}

func (p SettingsPatch) Validate() error {
	if p.Theme != nil {
		switch *p.Theme {
		case ThemeLight, ThemeDark, ThemeSystem:
		default:
			return ErrInvalidTheme
		}
	}
	if p.DefaultView != nil {
		if _, err := ParseView(string(*p.DefaultView)); err != nil {
			return err
		}
	}
	if p.AutoDeleteCompleted != nil && *p.AutoDeleteCompleted < 0 {
		return ErrInvalidRetention
	}
	return nil
}

func (p SettingsPatch) Apply(s *Settings) {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.DefaultView != nil {
		if v, err := ParseView(string(*p.DefaultView)); err == nil {
			s.DefaultView = v
		}
	}
	if p.EnableHaptics != nil {
		s.EnableHaptics = *p.EnableHaptics
	}
	if p.EnableNotifications != nil {
		s.EnableNotifications = *p.EnableNotifications
	}
	if p.AutoDeleteCompleted != nil {
		s.AutoDeleteCompleted = *p.AutoDeleteCompleted
	}
}
