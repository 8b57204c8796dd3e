package domain

import (
	"fmt"
	"time"
)

const (
	NameMaxRunes        = 50
	OccupationMaxRunes  = 50
	PreferencesMaxRunes = 500
)

var ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	IsAnonymous bool      `json:"isAnonymous"`
	Provider    string    `json:"provider,omitempty"`
	Occupation  string    `json:"occupation,omitempty"`
	Preferences string    `json:"preferences,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Settings son los campos editables desde la pantalla de ajustes.
type Settings struct {
	Name        string `json:"name"`
	Occupation  string `json:"occupation"`
	Preferences string `json:"preferences"`
}

// Capped recorta cada campo a su longitud máxima.
func (s Settings) Capped() Settings {
	return Settings{
		Name:        truncateRunes(s.Name, NameMaxRunes),
		Occupation:  truncateRunes(s.Occupation, OccupationMaxRunes),
		Preferences: truncateRunes(s.Preferences, PreferencesMaxRunes),
	}
}

// Apply copia los ajustes al perfil.
func (u *User) Apply(s Settings, now time.Time) {
	s = s.Capped()
	u.DisplayName = s.Name
	u.Occupation = s.Occupation
	u.Preferences = s.Preferences
	u.UpdatedAt = now
}

// Settings devuelve los campos de ajustes del perfil.
func (u User) Settings() Settings {
	return Settings{Name: u.DisplayName, Occupation: u.Occupation, Preferences: u.Preferences}
}
