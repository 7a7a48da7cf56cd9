package ai

import (
	"context"

	"google.golang.org/genai"
)

// ModelPreset represents the model usage preset
type ModelPreset string

const (
	PresetArticle ModelPreset = "article" // long-form copy
	PresetPrecise ModelPreset = "precise" // short factual answers
)

// ModelConfig holds model configuration
type ModelConfig struct {
	Temperature      float32
	TopP             float32
	TopK             int
	MaxOutputTokens  int
	ResponseMimeType string
}

// OpenAIConfig holds OpenAI-specific configuration
type OpenAIConfig struct {
	Temperature float32
	MaxTokens   int
	TopP        float32
}

// GenerateMetadata contains metadata about the generation
type GenerateMetadata struct {
	Provider     string
	Model        string
	UsedFallback bool
}

// GenerateOptions holds options for AI generation
type GenerateOptions struct {
	JSONMode bool
	// Schema constrains the JSON shape on providers that support it.
	Schema *genai.Schema
}

// ModelInvoker is the dependency the generator needs from the AI stack.
type ModelInvoker interface {
	GenerateJSON(ctx context.Context, prompt string, preset ModelPreset, dest any, opts *GenerateOptions) (*GenerateMetadata, error)
}

func GetPresetConfig(preset ModelPreset) ModelConfig {
	switch preset {
	case PresetArticle:
		return ModelConfig{
			Temperature:     0.7,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 16384,
		}
	case PresetPrecise:
		return ModelConfig{
			Temperature:     0.1,
			TopP:            0.9,
			TopK:            20,
			MaxOutputTokens: 1024,
		}
	default:
		return GetPresetConfig(PresetArticle)
	}
}

func GetOpenAIPresetConfig(preset ModelPreset) OpenAIConfig {
	switch preset {
	case PresetArticle:
		return OpenAIConfig{
			Temperature: 0.7,
			MaxTokens:   16384,
			TopP:        0.95,
		}
	case PresetPrecise:
		return OpenAIConfig{
			Temperature: 0.1,
			MaxTokens:   1024,
			TopP:        0.9,
		}
	default:
		return GetOpenAIPresetConfig(PresetArticle)
	}
}
