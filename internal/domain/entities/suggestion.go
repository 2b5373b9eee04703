package entities

import "time"

// Category is the kind of text a suggestion was mined from
type Category string

const (
	CategoryTitle     Category = "title"
	CategoryCountry   Category = "country"
	CategorySetting   Category = "setting"
	CategoryEmotion   Category = "emotion"
	CategoryContent   Category = "content"
	CategoryCharacter Category = "character"
)

// Categories lists every valid category
var Categories = []Category{
	CategoryTitle,
	CategoryCountry,
	CategorySetting,
	CategoryEmotion,
	CategoryContent,
	CategoryCharacter,
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategoryTitle, CategoryCountry, CategorySetting, CategoryEmotion, CategoryContent, CategoryCharacter:
		return true
	}
	return false
}

// TitleCasedDisplay reports whether suggestions of this category are shown
// title-cased to end users.
func (c Category) TitleCasedDisplay() bool {
	return c == CategoryCountry || c == CategorySetting || c == CategoryEmotion
}

// MinTermLength is the shortest term (in runes) the store accepts
const MinTermLength = 2

// MaxTermLength is the longest term (in runes) the store accepts
const MaxTermLength = 255

// Suggestion is a learned (term, category) pair with its popularity
type Suggestion struct {
	ID        int64     `json:"id" db:"id"`
	Term      string    `json:"term" db:"term"`
	Category  Category  `json:"category" db:"category"`
	Frequency int       `json:"frequency" db:"frequency"`
	LastUsed  time.Time `json:"last_used" db:"last_used"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Key returns the uniqueness key of the suggestion
func (s *Suggestion) Key() SuggestionKey {
	return SuggestionKey{Term: s.Term, Category: s.Category}
}

// SuggestionKey identifies a suggestion row
type SuggestionKey struct {
	Term     string
	Category Category
}

// Contribution is one (term, category, weight) triple produced while mining a scene
type Contribution struct {
	Term     string
	Category Category
	Weight   int
	// Occurrences is how often the term appeared in the scene body. Zero for
	// non-body contributions.
	Occurrences int
}

// CategoryStat summarizes the store for one category
type CategoryStat struct {
	Category     Category `json:"category" db:"category"`
	Count        int64    `json:"count" db:"count"`
	AvgFrequency float64  `json:"avg_frequency" db:"avg_frequency"`
}
