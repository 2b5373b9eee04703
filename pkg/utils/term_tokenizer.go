package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// TokenMode selects which runs of text count as words
type TokenMode int

const (
	// AlphaWords keeps word runs made of letters only ("abc123" is dropped)
	AlphaWords TokenMode = iota
	// WordChars keeps every run of letters, digits and underscores
	WordChars
)

var wordRunPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

// Tokenize splits text into lower-cased word tokens of at least minLength
// runes, skipping stopwords. It never returns nil.
func Tokenize(text string, minLength int, mode TokenMode, stopwords StopwordSet) []string {
	tokens := []string{}
	if text == "" {
		return tokens
	}

	for _, run := range wordRunPattern.FindAllString(norm.NFC.String(text), -1) {
		if utf8.RuneCountInString(run) < minLength {
			continue
		}
		if mode == AlphaWords && !isAlphabetic(run) {
			continue
		}
		word := strings.ToLower(run)
		if stopwords.Contains(word) {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// TokenizeOptional is Tokenize for attributes that may be absent
func TokenizeOptional(text *string, minLength int, mode TokenMode, stopwords StopwordSet) []string {
	if text == nil {
		return []string{}
	}
	return Tokenize(*text, minLength, mode, stopwords)
}

// NormalizeTerm trims and lower-cases a term the way it is stored
func NormalizeTerm(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

// DisplayTerm title-cases a stored term for presentation ("new york" -> "New York")
func DisplayTerm(term string) string {
	return cases.Title(language.Und).String(term)
}

// TermLength returns the length of a term in runes
func TermLength(s string) int {
	return utf8.RuneCountInString(s)
}

func isAlphabetic(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) && !unicode.Is(unicode.M, r) {
			return false
		}
	}
	return true
}
