package services

import (
	"sort"
	"strings"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/config"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/utils"
)

// Minimum word lengths per field family
const (
	titleWordMinLength      = 3
	characterWordMinLength  = 3
	atmosphereWordMinLength = 4
	contentWordMinLength    = 4

	// values at or below this many runes carry no words worth mining
	attributeMinLength = 2
	// bodies at or below this many runes are ignored
	fullTextMinLength = 10
	// body words this long are kept even when they occur once
	longContentWordLength = 6
)

// ExtractionWeights are the weights contributed per field family
type ExtractionWeights struct {
	TitleWhole     int
	TitleWord      int
	Field          int
	CharacterWord  int
	AtmosphereWord int
	ContentMax     int
	ContentTopN    int
}

// DefaultExtractionWeights returns the reference weights
func DefaultExtractionWeights() ExtractionWeights {
	return ExtractionWeights{
		TitleWhole:     2,
		TitleWord:      1,
		Field:          3,
		CharacterWord:  1,
		AtmosphereWord: 1,
		ContentMax:     5,
		ContentTopN:    30,
	}
}

// StopwordTables holds the stopword set applied to each field family
type StopwordTables struct {
	Title     utils.StopwordSet
	Character utils.StopwordSet
	Content   utils.StopwordSet
}

// DefaultStopwordTables returns title -> base, character -> base+long,
// content -> base+long+extended
func DefaultStopwordTables() StopwordTables {
	return StopwordTables{
		Title:     utils.NewStopwordSet(utils.BaseStopwords),
		Character: utils.NewStopwordSet(utils.BaseStopwords, utils.LongStopwords),
		Content:   utils.NewStopwordSet(utils.BaseStopwords, utils.LongStopwords, utils.ExtendedStopwords),
	}
}

// SceneTextExtractor turns a scene into weighted (term, category) contributions
type SceneTextExtractor struct {
	weights   ExtractionWeights
	stopwords StopwordTables
}

// NewSceneTextExtractor creates an extractor with the given weights and stopwords
func NewSceneTextExtractor(weights ExtractionWeights, stopwords StopwordTables) *SceneTextExtractor {
	return &SceneTextExtractor{weights: weights, stopwords: stopwords}
}

// NewSceneTextExtractorFromConfig applies the configured weights and extra stopwords
func NewSceneTextExtractorFromConfig(cfg *config.SuggestionConfig) *SceneTextExtractor {
	weights := ExtractionWeights{
		TitleWhole:     cfg.TitleWholeWeight,
		TitleWord:      cfg.TitleWordWeight,
		Field:          cfg.FieldWeight,
		CharacterWord:  cfg.CharacterWordWeight,
		AtmosphereWord: cfg.AtmosphereWordWeight,
		ContentMax:     cfg.ContentMaxWeight,
		ContentTopN:    cfg.ContentTopN,
	}
	stopwords := StopwordTables{
		Title:     utils.NewStopwordSet(utils.BaseStopwords, cfg.TitleStopwordsExtra),
		Character: utils.NewStopwordSet(utils.BaseStopwords, utils.LongStopwords, cfg.CharacterStopwordsExtra),
		Content:   utils.NewStopwordSet(utils.BaseStopwords, utils.LongStopwords, utils.ExtendedStopwords, cfg.ContentStopwordsExtra),
	}
	return NewSceneTextExtractor(weights, stopwords)
}

// Extract mines one scene. Missing fields contribute nothing. The result may
// repeat a (term, category) pair; callers aggregate.
func (e *SceneTextExtractor) Extract(scene *entities.Scene) []entities.Contribution {
	if scene == nil {
		return []entities.Contribution{}
	}

	out := make([]entities.Contribution, 0, 32)
	add := func(term string, category entities.Category, weight int) {
		if weight <= 0 || !termFits(term) {
			return
		}
		out = append(out, entities.Contribution{Term: term, Category: category, Weight: weight})
	}

	if title := utils.NormalizeTerm(scene.Title); title != "" {
		add(title, entities.CategoryTitle, e.weights.TitleWhole)
		for _, word := range utils.Tokenize(title, titleWordMinLength, utils.AlphaWords, e.stopwords.Title) {
			add(word, entities.CategoryTitle, e.weights.TitleWord)
		}
	}

	add(utils.NormalizeTerm(scene.Country), entities.CategoryCountry, e.weights.Field)
	add(utils.NormalizeTerm(scene.Setting), entities.CategorySetting, e.weights.Field)
	add(utils.NormalizeTerm(scene.Emotion), entities.CategoryEmotion, e.weights.Field)

	if scene.Details != nil {
		for _, profile := range scene.Details.Characters() {
			for _, value := range profile.Attributes() {
				for _, word := range e.attributeWords(value, characterWordMinLength, e.stopwords.Character) {
					add(word, entities.CategoryCharacter, e.weights.CharacterWord)
				}
			}
		}
		for _, value := range scene.Details.Atmosphere.Attributes() {
			for _, word := range e.attributeWords(value, atmosphereWordMinLength, e.stopwords.Character) {
				add(word, entities.CategoryContent, e.weights.AtmosphereWord)
			}
		}
	}

	for _, wc := range e.contentWords(scene.FullText) {
		out = append(out, entities.Contribution{
			Term:        wc.word,
			Category:    entities.CategoryContent,
			Weight:      min(wc.count, e.weights.ContentMax),
			Occurrences: wc.count,
		})
	}

	return out
}

func (e *SceneTextExtractor) attributeWords(value *string, minLength int, stopwords utils.StopwordSet) []string {
	if value == nil || utils.TermLength(strings.TrimSpace(*value)) <= attributeMinLength {
		return nil
	}
	return utils.Tokenize(*value, minLength, utils.AlphaWords, stopwords)
}

type wordCount struct {
	word  string
	count int
}

// contentWords counts body words and keeps the most frequent ones that are
// repeated or long. Ties keep first-appearance order.
func (e *SceneTextExtractor) contentWords(body string) []wordCount {
	if utils.TermLength(strings.TrimSpace(body)) <= fullTextMinLength {
		return nil
	}

	index := make(map[string]int)
	counts := make([]wordCount, 0, 64)
	for _, word := range utils.Tokenize(body, contentWordMinLength, utils.AlphaWords, e.stopwords.Content) {
		if i, ok := index[word]; ok {
			counts[i].count++
			continue
		}
		index[word] = len(counts)
		counts = append(counts, wordCount{word: word, count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool { return counts[i].count > counts[j].count })
	if e.weights.ContentTopN > 0 && len(counts) > e.weights.ContentTopN {
		counts = counts[:e.weights.ContentTopN]
	}

	kept := counts[:0]
	for _, wc := range counts {
		if wc.count >= 2 || utils.TermLength(wc.word) >= longContentWordLength {
			kept = append(kept, wc)
		}
	}
	return kept
}

// LiveTerms adds every term the scene can currently back to vocab. It mirrors
// Extract but keeps digits and ignores stopwords so nothing still present in a
// scene is considered stale.
func LiveTerms(scene *entities.Scene, vocab map[string]struct{}) {
	if scene == nil {
		return
	}
	put := func(term string) {
		if term != "" {
			vocab[term] = struct{}{}
		}
	}
	putWords := func(text string, minLength int) {
		for _, word := range utils.Tokenize(text, minLength, utils.WordChars, nil) {
			put(word)
		}
	}

	title := utils.NormalizeTerm(scene.Title)
	put(title)
	putWords(title, titleWordMinLength)

	put(utils.NormalizeTerm(scene.Country))
	put(utils.NormalizeTerm(scene.Setting))
	put(utils.NormalizeTerm(scene.Emotion))

	if scene.Details != nil {
		for _, profile := range scene.Details.Characters() {
			for _, value := range profile.Attributes() {
				if value != nil {
					putWords(*value, characterWordMinLength)
				}
			}
		}
		for _, value := range scene.Details.Atmosphere.Attributes() {
			if value != nil {
				putWords(*value, characterWordMinLength)
			}
		}
	}

	putWords(scene.FullText, contentWordMinLength)
}

// aggregatedPair is the summed contribution of one (term, category) pair
type aggregatedPair struct {
	key         entities.SuggestionKey
	weight      int
	occurrences int
}

// aggregateContributions sums weights per pair into acc, keeping the largest
// body occurrence count seen. order records first-seen keys when non-nil.
func aggregateContributions(acc map[entities.SuggestionKey]*aggregatedPair, order *[]entities.SuggestionKey, contributions []entities.Contribution) {
	for _, c := range contributions {
		key := entities.SuggestionKey{Term: c.Term, Category: c.Category}
		pair, ok := acc[key]
		if !ok {
			pair = &aggregatedPair{key: key}
			acc[key] = pair
			if order != nil {
				*order = append(*order, key)
			}
		}
		pair.weight += c.Weight
		pair.occurrences = max(pair.occurrences, c.Occurrences)
	}
}

func termFits(term string) bool {
	n := utils.TermLength(term)
	return n >= entities.MinTermLength && n <= entities.MaxTermLength
}
