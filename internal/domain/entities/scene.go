package entities

import (
	"strings"
	"time"
)

// MaxTitleLength is the longest scene title (in runes)
const MaxTitleLength = 255

// Scene is a piece of content on the site. Suggestions are mined from its text.
type Scene struct {
	ID            int64         `json:"id" db:"id"`
	Title         string        `json:"title" db:"title"`
	EffeminateAge int           `json:"effeminate_age" db:"effeminate_age"`
	MasculineAge  int           `json:"masculine_age" db:"masculine_age"`
	Country       string        `json:"country" db:"country"`
	Setting       string        `json:"setting" db:"setting"`
	Emotion       string        `json:"emotion" db:"emotion"`
	FullText      string        `json:"full_text" db:"full_text"`
	Details       *SceneDetails `json:"details,omitempty" db:"details"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// SceneDetails holds the structured attributes of a scene. Every level is optional.
type SceneDetails struct {
	Effeminate *CharacterProfile  `json:"effeminate,omitempty"`
	Masculine  *CharacterProfile  `json:"masculine,omitempty"`
	Atmosphere *AtmosphereProfile `json:"atmosphere,omitempty"`
}

// CharacterProfile describes one of the two characters of a scene
type CharacterProfile struct {
	Appearance *string `json:"appearance,omitempty"`
	Hair       *string `json:"hair,omitempty"`
	Clothing   *string `json:"clothing,omitempty"`
}

// AtmosphereProfile describes the sensory surroundings of a scene
type AtmosphereProfile struct {
	Lighting *string `json:"lighting,omitempty"`
	Scent    *string `json:"scent,omitempty"`
	Sound    *string `json:"sound,omitempty"`
}

// Characters returns the character profiles that are present
func (d *SceneDetails) Characters() []*CharacterProfile {
	if d == nil {
		return nil
	}
	profiles := make([]*CharacterProfile, 0, 2)
	for _, p := range []*CharacterProfile{d.Effeminate, d.Masculine} {
		if p != nil {
			profiles = append(profiles, p)
		}
	}
	return profiles
}

// Attributes returns appearance, hair and clothing in that order
func (p *CharacterProfile) Attributes() []*string {
	if p == nil {
		return nil
	}
	return []*string{p.Appearance, p.Hair, p.Clothing}
}

// Attributes returns lighting, scent and sound in that order
func (p *AtmosphereProfile) Attributes() []*string {
	if p == nil {
		return nil
	}
	return []*string{p.Lighting, p.Scent, p.Sound}
}

// FieldValue returns the value of one of the single-valued text fields
// used for suggestion fallback.
func (s *Scene) FieldValue(field string) string {
	switch field {
	case "title":
		return s.Title
	case "country":
		return s.Country
	case "setting":
		return s.Setting
	case "emotion":
		return s.Emotion
	default:
		return ""
	}
}

// Normalize trims the free-form fields before the scene is stored
func (s *Scene) Normalize() {
	s.Title = strings.TrimSpace(s.Title)
	s.Country = strings.TrimSpace(s.Country)
	s.Setting = strings.TrimSpace(s.Setting)
	s.Emotion = strings.TrimSpace(s.Emotion)
}

// StringPtr returns a pointer to s. Handy when building details by hand.
func StringPtr(s string) *string {
	return &s
}
