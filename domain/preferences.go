package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidPreferences = errors.New("domain: invalid preferences")

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) IsValid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	default:
		return false
	}
}

// UserPreferences holds user configurable options.
type UserPreferences struct {
	Theme         Theme `json:"theme"`
	Notifications bool  `json:"notifications"`
	SoundEffects  bool  `json:"soundEffects"`
	FocusDuration int   `json:"focusDuration"` // minutes
	BreakDuration int   `json:"breakDuration"` // minutes
}

func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Theme:         ThemeSystem,
		Notifications: true,
		SoundEffects:  true,
		FocusDuration: 25,
		BreakDuration: 5,
	}
}

func (p UserPreferences) Validate() error {
	if !p.Theme.IsValid() {
		return fmt.Errorf("%w: theme %q", ErrInvalidPreferences, p.Theme)
	}
	if p.FocusDuration <= 0 {
		return fmt.Errorf("%w: focus duration must be positive, got %d", ErrInvalidPreferences, p.FocusDuration)
	}
	if p.BreakDuration <= 0 {
		return fmt.Errorf("%w: break duration must be positive, got %d", ErrInvalidPreferences, p.BreakDuration)
	}
	return nil
}
