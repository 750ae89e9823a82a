package importer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quiz-arena/internal/domain"
)

type questionFile struct {
	Questions []domain.Question `yaml:"questions"`
}

// LoadFile reads a YAML question bank, either a bare list or a document with
// a top-level questions key. JSON files parse too since YAML is a superset.
func LoadFile(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var questions []domain.Question
	if err := yaml.Unmarshal(data, &questions); err != nil {
		var doc questionFile
		if docErr := yaml.Unmarshal(data, &doc); docErr != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		questions = doc.Questions
	}
	for i := range questions {
		questions[i] = Normalize(questions[i], Options{})
	}
	return questions, nil
}
