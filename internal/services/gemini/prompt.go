// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gemini

import (
	"fmt"
	"strings"

	"github.com/taibuivan/cinescript/internal/core/shotlist"
	"github.com/taibuivan/cinescript/pkg/slice"
)

// suggestPromptTemplate asks the text model for a JSON object of shot settings.
const suggestPromptTemplate = `You are a professional Director of Photography.
Based on this shot description: %q,
suggest a JSON object with the following keys:
- lens (string, e.g. "50mm")
- aperture (string, e.g. "T2.8")
- camera (string, generic pro camera)
- size (one of: %s)
- angle (one of: %s)
- movement (one of: %s)
- framing (one of: %s)
- focus (one of: %s)

Return ONLY valid JSON. Do not use markdown code blocks.`

// refinePromptTemplate asks the text model for an English image prompt.
const refinePromptTemplate = `Act as an expert prompt engineer for AI image generation.
Translate the following shot description into a highly detailed, cinematic English prompt suitable for a photorealistic movie shot.

Description: %q

Rules:
1. Translate accurately to English when the description is in another language.
2. Enhance with cinematic keywords (e.g., "cinematic lighting", "photorealistic", "8k", "highly detailed").
3. Describe lighting, mood, and texture if implied.
4. Return ONLY the English prompt string, no other text.`

// SuggestionPrompt renders the suggestion request for description. The allowed
// values are taken from the shot vocabulary so the model sees the exact labels.
func SuggestionPrompt(description string) string {
	vocabulary := shotlist.Vocabularies()

	return fmt.Sprintf(suggestPromptTemplate,
		description,
		choices(vocabulary.Size),
		choices(vocabulary.Angle),
		choices(vocabulary.Movement),
		choices(vocabulary.Framing),
		choices(vocabulary.Focus),
	)
}

// RefinementPrompt renders the prompt-refinement request for description.
func RefinementPrompt(description string) string {
	return fmt.Sprintf(refinePromptTemplate, description)
}

func choices[T ~string](values []T) string {
	quoted := slice.Map(values, func(value T) string {
		return fmt.Sprintf("%q", string(value))
	})
	return strings.Join(quoted, ", ")
}
