package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SaiCharanMahadevan/HealthTrackerApp/logger"
)

// ModelBackend is the outbound generative-model call. The production
// implementation is GeminiClient; tests use canned fakes.
type ModelBackend interface {
	GenerateContent(ctx context.Context, prompt string, image []byte, imageMIME string) (string, error)
}

type InterpreterService struct {
	backend ModelBackend
}

func NewInterpreterService(backend ModelBackend) *InterpreterService {
	return &InterpreterService{backend: backend}
}

const entryPrompt = `Analyze the following health entry and extract structured information.
The possible entry types are 'food', 'weight', or 'steps'.

Input Text: %q

Output exactly one JSON object with one of the following structures:
- If type is 'food': { "type": "food", "items": [ { "name": "<food item description>", "quantity": <numeric quantity>, "unit": "<unit e.g., piece, slice, cup>", "specified_amount": <numeric amount or null>, "specified_unit": "<unit of the specified amount, e.g. g or ml, or null>", "calories": <number or null>, "protein_g": <number or null>, "carbs_g": <number or null>, "fat_g": <number or null> } ], "total_calories": <number or null>, "total_protein_g": <number or null>, "total_carbs_g": <number or null>, "total_fat_g": <number or null> }
- If type is 'weight': { "type": "weight", "value": <numeric weight>, "unit": "<unit e.g., kg, lbs>" }
- If type is 'steps': { "type": "steps", "value": <numeric step count> }
- If the entry does not match any type or is unclear, return: { "type": "unknown" }

Nutrition estimation rules for food items:
- If the quantity is a count of discrete units (e.g. "2 apples"), estimate the nutrition of ONE unit and set "quantity" to the count; leave "specified_amount" and "specified_unit" null.
- If the quantity is a specified weight or volume (e.g. "50g shrimp", "200ml milk"), set "specified_amount" and "specified_unit" accordingly, set "quantity" to 1, and estimate the nutrition of the WHOLE specified amount.
- "calories", "protein_g", "carbs_g" and "fat_g" must always be present: an explicit number when you can estimate, null when you cannot. Never omit them.

If an image is attached, use it together with the text to identify the entry.
Provide only the JSON object, with no surrounding commentary.`

// Interpret classifies one entry. It never returns an error: every failure mode
// collapses into the tagged result so the write path can degrade instead of
// aborting.
func (s *InterpreterService) Interpret(ctx context.Context, text string, image []byte, imageMIME string) InterpretationResult {
	if text == "" && len(image) == 0 {
		return InterpretationResult{Kind: ResultFailed, FailReason: FailMissingInput}
	}

	if len(image) > 0 && !usableImage(image, imageMIME) {
		if text == "" {
			return InterpretationResult{Kind: ResultFailed, FailReason: FailImageDecode}
		}
		logger.Warn("unusable image attachment, falling back to text-only interpretation",
			"mime", imageMIME)
		image = nil
	}

	prompt := fmt.Sprintf(entryPrompt, text)
	out, err := s.backend.GenerateContent(ctx, prompt, image, imageMIME)
	if err != nil && len(image) > 0 && text != "" {
		// the model may reject the image bytes themselves; the text alone can
		// still classify the entry
		logger.Warn("model rejected image request, retrying text-only", "err", err)
		out, err = s.backend.GenerateContent(ctx, prompt, nil, "")
	}
	if err != nil {
		logger.Error("model call failed", "err", err)
		return InterpretationResult{Kind: ResultFailed, FailReason: FailModelCall, RawText: err.Error()}
	}

	cleaned := stripCodeFences(out)

	var raw map[string]any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		logger.Warn("model output is not valid JSON", "err", err)
		return InterpretationResult{Kind: ResultFailed, FailReason: FailMalformedOutput, RawText: out}
	}

	typ, _ := raw["type"].(string)
	switch strings.ToLower(typ) {
	case "food":
		return validateFood(raw, out)
	case "weight":
		return validateWeight(raw, out)
	case "steps":
		return validateSteps(raw, out)
	default:
		// "unknown", "error" and anything else: a stable terminal state, not
		// an error. The raw object is kept for diagnostics.
		return InterpretationResult{Kind: ResultUnknown, EntryType: "unknown", Raw: raw, RawText: out}
	}
}

// usableImage is a cheap sanity check before bytes go to the model: declared
// image MIME and a non-trivial payload.
func usableImage(image []byte, mime string) bool {
	return len(image) > 0 && strings.HasPrefix(strings.ToLower(mime), "image/")
}

// stripCodeFences removes Markdown fencing the model tends to wrap around its
// JSON answer ("```json ... ```").
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		// drop the optional language tag line
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func validateFood(raw map[string]any, rawText string) InterpretationResult {
	downgrade := func(why string) InterpretationResult {
		logger.Warn("food output failed validation, downgrading to unknown", "reason", why)
		return InterpretationResult{Kind: ResultUnknown, EntryType: "unknown", Raw: raw, RawText: rawText}
	}

	if _, ok := raw["items"].([]any); !ok {
		return downgrade("items missing or not a list")
	}
	for _, k := range []string{"total_calories", "total_protein_g", "total_carbs_g", "total_fat_g"} {
		if _, present := raw[k]; !present {
			return downgrade("missing " + k)
		}
	}

	// round-trip through JSON to get the typed payload; a type mismatch on any
	// field is a validation failure, not a crash
	b, err := json.Marshal(raw)
	if err != nil {
		return downgrade(err.Error())
	}
	var food FoodPayload
	if err := json.Unmarshal(b, &food); err != nil {
		return downgrade(err.Error())
	}
	food.Type = "food"

	return InterpretationResult{
		Kind:      ResultClassified,
		EntryType: "food",
		Food:      &food,
		Raw:       raw,
		RawText:   rawText,
	}
}

func validateWeight(raw map[string]any, rawText string) InterpretationResult {
	v, okV := raw["value"].(float64)
	u, okU := raw["unit"].(string)
	if !okV || !okU || u == "" {
		logger.Warn("weight output failed validation, downgrading to unknown")
		return InterpretationResult{Kind: ResultUnknown, EntryType: "unknown", Raw: raw, RawText: rawText}
	}
	return InterpretationResult{
		Kind:      ResultClassified,
		EntryType: "weight",
		Value:     &v,
		Unit:      u,
		Raw:       raw,
		RawText:   rawText,
	}
}

func validateSteps(raw map[string]any, rawText string) InterpretationResult {
	v, ok := raw["value"].(float64)
	if !ok {
		logger.Warn("steps output failed validation, downgrading to unknown")
		return InterpretationResult{Kind: ResultUnknown, EntryType: "unknown", Raw: raw, RawText: rawText}
	}
	unit, _ := raw["unit"].(string)
	return InterpretationResult{
		Kind:      ResultClassified,
		EntryType: "steps",
		Value:     &v,
		Unit:      unit,
		Raw:       raw,
		RawText:   rawText,
	}
}
