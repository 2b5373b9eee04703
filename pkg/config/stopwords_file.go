package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type stopwordFile struct {
	Title     []string `yaml:"title"`
	Character []string `yaml:"character"`
	Content   []string `yaml:"content"`
}

// MergeStopwordFile appends the lists of a YAML stopword file to the
// per-field extras:
//
//	title: [chapter, part]
//	character: [wears]
//	content: [suddenly]
func (c *SuggestionConfig) MergeStopwordFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read stopword file %s: %w", path, err)
	}

	var file stopwordFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse stopword file %s: %w", path, err)
	}

	c.TitleStopwordsExtra = appendWords(c.TitleStopwordsExtra, file.Title)
	c.CharacterStopwordsExtra = appendWords(c.CharacterStopwordsExtra, file.Character)
	c.ContentStopwordsExtra = appendWords(c.ContentStopwordsExtra, file.Content)
	return nil
}

func appendWords(dst, words []string) []string {
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			dst = append(dst, w)
		}
	}
	return dst
}
