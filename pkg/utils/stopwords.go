package utils

import "strings"

// BaseStopwords are the short English function words excluded from every
// mined field.
var BaseStopwords = []string{
	"the", "and", "with", "for", "are", "but", "not", "you", "all", "can",
	"had", "her", "was", "one", "our", "out", "day", "get", "has", "him",
	"his", "how", "its", "may", "new", "now", "old", "see", "two", "who",
	"boy", "did", "man", "men", "she", "use", "way",
}

// LongStopwords are longer function words that only show up as noise in
// descriptive text (character and atmosphere attributes, full text).
var LongStopwords = []string{
	"that", "this", "have", "from", "they", "know", "want", "been", "good", "much",
	"some", "time", "very", "when", "come", "here", "just", "like", "long", "make",
	"many", "over", "such", "take", "than", "them", "well", "were", "what", "would",
	"there", "could", "other",
}

// ExtendedStopwords are additionally excluded from scene bodies.
var ExtendedStopwords = []string{
	"through", "before", "around", "between", "during", "without", "against", "nothing", "someone", "something",
	"everything", "anything", "everyone", "anyone", "these", "think", "where", "being", "every", "great",
	"might", "shall", "still", "those", "under", "while", "should", "never", "first", "after",
}

// StopwordSet is a lookup table of lower-cased stopwords
type StopwordSet map[string]struct{}

// NewStopwordSet merges the given word lists into one set
func NewStopwordSet(lists ...[]string) StopwordSet {
	set := make(StopwordSet)
	for _, list := range lists {
		for _, word := range list {
			word = strings.ToLower(strings.TrimSpace(word))
			if word != "" {
				set[word] = struct{}{}
			}
		}
	}
	return set
}

// Contains reports whether word is a stopword. A nil set contains nothing.
func (s StopwordSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Len returns the number of distinct stopwords
func (s StopwordSet) Len() int {
	return len(s)
}
