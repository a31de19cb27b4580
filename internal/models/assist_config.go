package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AssistConfig holds the prompt texts and fallback suggestions used by the
// writing-assistance endpoint. Kept in a YAML file so the study team can
// reword prompts between runs without a rebuild.
type AssistConfig struct {
	SystemPrompt    string   `yaml:"system_prompt"`
	SelectionPrompt string   `yaml:"selection_prompt"`
	ContinuePrompt  string   `yaml:"continue_prompt"`
	Fallbacks       []string `yaml:"fallbacks"`
}

// LoadAssistConfig reads and parses the assist prompt file.
func LoadAssistConfig(path string) (*AssistConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read assist config file: %w", err)
	}

	var cfg AssistConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assist config YAML: %w", err)
	}

	if len(cfg.Fallbacks) == 0 {
		return nil, fmt.Errorf("assist config %s has no fallback suggestions", path)
	}

	return &cfg, nil
}

// DefaultAssistConfig is used when no assist file is present on disk.
func DefaultAssistConfig() *AssistConfig {
	return &AssistConfig{
		SystemPrompt: "You are an academic writing assistant. You give brief, useful suggestions.",
		SelectionPrompt: "The user is writing about how their studies will help them in the future. " +
			"They selected this text: '%s'. Give a brief suggestion (at most 20 words) to improve or " +
			"rewrite this part. Reply with the suggestion only, no extra explanation.",
		ContinuePrompt: "The user is writing about how their studies will help them in the future. " +
			"So far they have written: '%s...'. Give a brief suggestion (at most 20 words) of what " +
			"they could add to enrich the text. Reply with the suggestion only, no extra explanation.",
		Fallbacks: []string{
			"Add concrete examples to illustrate your point.",
			"Connect your ideas to the current social context.",
			"Close by summarizing your main contribution.",
			"Check the clarity of your key sentences.",
		},
	}
}
