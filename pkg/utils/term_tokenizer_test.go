package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	titleStops := NewStopwordSet(BaseStopwords)

	tests := []struct {
		name      string
		text      string
		minLength int
		mode      TokenMode
		stops     StopwordSet
		want      []string
	}{
		{
			name:      "empty input",
			text:      "",
			minLength: 3,
			mode:      AlphaWords,
			want:      []string{},
		},
		{
			name:      "title words drop stopwords and short words",
			text:      "The Quiet Dawn of an Era",
			minLength: 3,
			mode:      AlphaWords,
			stops:     titleStops,
			want:      []string{"quiet", "dawn", "era"},
		},
		{
			name:      "alpha mode skips mixed runs",
			text:      "room 101 and suite_b or abc123 lamp",
			minLength: 3,
			mode:      AlphaWords,
			want:      []string{"room", "and", "lamp"},
		},
		{
			name:      "word mode keeps digits and underscores",
			text:      "room 101 suite_b abc123",
			minLength: 3,
			mode:      WordChars,
			want:      []string{"room", "101", "suite_b", "abc123"},
		},
		{
			name:      "punctuation splits runs",
			text:      "don't stop-motion, candle.light",
			minLength: 3,
			mode:      AlphaWords,
			want:      []string{"don", "stop", "motion", "candle", "light"},
		},
		{
			name:      "accented letters stay inside the word",
			text:      "Paris Café",
			minLength: 3,
			mode:      WordChars,
			want:      []string{"paris", "café"},
		},
		{
			name:      "length is counted in runes",
			text:      "éta ab",
			minLength: 3,
			mode:      AlphaWords,
			want:      []string{"éta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text, tt.minLength, tt.mode, tt.stops)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	text := "Silver rain over the harbour, silver lanterns"
	first := Tokenize(text, 4, AlphaWords, NewStopwordSet(BaseStopwords, LongStopwords))
	second := Tokenize(text, 4, AlphaWords, NewStopwordSet(BaseStopwords, LongStopwords))
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"silver", "rain", "harbour", "silver", "lanterns"}, first)
}

func TestTokenizeOptional_Nil(t *testing.T) {
	assert.Equal(t, []string{}, TokenizeOptional(nil, 3, AlphaWords, nil))

	value := "Velvet coat"
	assert.Equal(t, []string{"velvet", "coat"}, TokenizeOptional(&value, 3, AlphaWords, nil))
}

func TestNormalizeTerm(t *testing.T) {
	assert.Equal(t, "quiet dawn", NormalizeTerm("  Quiet Dawn \n"))
	assert.Equal(t, "", NormalizeTerm("   "))
	assert.Equal(t, 4, TermLength("café"))
	// decomposed e + combining acute folds to the composed form
	assert.Equal(t, "café", NormalizeTerm("Cafe\u0301"))
}

func TestDisplayTerm(t *testing.T) {
	assert.Equal(t, "New York", DisplayTerm("new york"))
	assert.Equal(t, "Melancholy", DisplayTerm("melancholy"))
	assert.Equal(t, "", DisplayTerm(""))
}

func TestStopwordTables(t *testing.T) {
	assert.Len(t, BaseStopwords, 37)
	assert.Len(t, LongStopwords, 33)
	assert.Len(t, ExtendedStopwords, 30)

	set := NewStopwordSet(BaseStopwords, LongStopwords, ExtendedStopwords, []string{" The ", ""})
	assert.Equal(t, 100, set.Len())
	assert.True(t, set.Contains("the"))
	assert.True(t, set.Contains("everything"))
	assert.False(t, set.Contains("garden"))

	var empty StopwordSet
	assert.False(t, empty.Contains("the"))
}
