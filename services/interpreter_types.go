package services

import "strings"

// ResultKind tags an interpretation outcome. Every consumer must handle all
// three branches explicitly.
type ResultKind string

const (
	ResultClassified ResultKind = "classified"
	ResultUnknown    ResultKind = "unknown"
	ResultFailed     ResultKind = "failed"
)

type FailReason string

const (
	FailMissingInput    FailReason = "missing_input"
	FailImageDecode     FailReason = "image_decode_error"
	FailModelCall       FailReason = "model_unavailable"
	FailMalformedOutput FailReason = "malformed_output"
)

// FoodItem is one food line as the model reports it. Quantity counts discrete
// units; a specified amount means "nutrition is for this whole weight/volume"
// and the per-item multiplier is fixed at one. Nil macro fields mean the model
// declined to estimate, which is what makes an item eligible for enrichment.
type FoodItem struct {
	Name            string   `json:"name"`
	Quantity        *float64 `json:"quantity"`
	Unit            string   `json:"unit,omitempty"`
	SpecifiedAmount *float64 `json:"specified_amount,omitempty"`
	SpecifiedUnit   string   `json:"specified_unit,omitempty"`
	Calories        *float64 `json:"calories"`
	ProteinG        *float64 `json:"protein_g"`
	CarbsG          *float64 `json:"carbs_g"`
	FatG            *float64 `json:"fat_g"`
	NutritionSource string   `json:"nutrition_source,omitempty"`
}

// HasSpecifiedGrams reports whether the item carries a gram-based total amount,
// the one case where per-100g lookup data can be scaled exactly.
func (it FoodItem) HasSpecifiedGrams() bool {
	return it.SpecifiedAmount != nil && strings.EqualFold(it.SpecifiedUnit, "g")
}

// IsSpecifiedAmount reports whether the item's quantity describes a total
// weight/volume rather than a count of units.
func (it FoodItem) IsSpecifiedAmount() bool {
	return it.SpecifiedAmount != nil
}

type FoodTotals struct {
	TotalCalories float64 `json:"total_calories"`
	TotalProteinG float64 `json:"total_protein_g"`
	TotalCarbsG   float64 `json:"total_carbs_g"`
	TotalFatG     float64 `json:"total_fat_g"`
}

type FoodPayload struct {
	Type          string     `json:"type"`
	Items         []FoodItem `json:"items"`
	TotalCalories *float64   `json:"total_calories"`
	TotalProteinG *float64   `json:"total_protein_g"`
	TotalCarbsG   *float64   `json:"total_carbs_g"`
	TotalFatG     *float64   `json:"total_fat_g"`
}

// InterpretationResult is the tagged outcome of one interpreter call.
//
//   - Classified: EntryType is food/weight/steps; Food or Value/Unit populated.
//   - Unknown: the model answered but nothing reliable could be extracted; Raw
//     keeps whatever object it returned.
//   - Failed: the call itself went wrong (missing input, unusable image, model
//     unreachable, non-JSON output); RawText keeps the offending output.
type InterpretationResult struct {
	Kind       ResultKind
	EntryType  string
	Food       *FoodPayload
	Value      *float64
	Unit       string
	Raw        map[string]any
	RawText    string
	FailReason FailReason
}
