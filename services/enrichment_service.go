package services

import (
	"context"
	"math"

	"github.com/SaiCharanMahadevan/HealthTrackerApp/logger"
)

// Provenance tags for item nutrition. Closed set: reporting and audits rely on
// these exact strings.
const (
	SourceLLMEstimate  = "LLM Estimate"
	SourceLLMProvided  = "LLM Estimate (Provided)"
	SourceOFFNotFound  = "LLM Estimate (Not Found in OFF)"
	SourceOFFMismatch  = "LLM Estimate (OFF Mismatch)"
	sourceUnscaledNote = " (per 100g, unscaled)"
)

// EnrichmentService fills nutrition gaps the interpreter left open and owns the
// entry-level totals as the single source of truth.
type EnrichmentService struct {
	lookup NutritionLookup
}

func NewEnrichmentService(lookup NutritionLookup) *EnrichmentService {
	return &EnrichmentService{lookup: lookup}
}

// EnrichAndTotal enriches each item whose calorie estimate is null, then
// recomputes totals from the item list. The input slice is not mutated.
// Calling it twice over the same items yields identical output.
func (s *EnrichmentService) EnrichAndTotal(ctx context.Context, items []FoodItem) ([]FoodItem, FoodTotals) {
	out := make([]FoodItem, len(items))
	copy(out, items)

	for i := range out {
		s.enrichItem(ctx, &out[i])
	}
	return out, RecalculateTotals(out)
}

func (s *EnrichmentService) enrichItem(ctx context.Context, it *FoodItem) {
	if it.Calories != nil {
		// an explicit zero or number is an interpreter-supplied estimate and is
		// never overwritten
		if it.NutritionSource == "" {
			it.NutritionSource = SourceLLMProvided
		}
		return
	}
	if it.Name == "" {
		it.NutritionSource = SourceLLMEstimate
		return
	}

	nut, miss := s.lookup.Lookup(ctx, it.Name)
	switch miss {
	case MissNone:
	case MissMismatch:
		it.NutritionSource = SourceOFFMismatch
		return
	default:
		it.NutritionSource = SourceOFFNotFound
		return
	}

	if it.HasSpecifiedGrams() {
		factor := *it.SpecifiedAmount / 100.0
		it.Calories = f64(math.Round(nut.Calories * factor))
		setIfNil(&it.ProteinG, round1(nut.ProteinG*factor))
		setIfNil(&it.CarbsG, round1(nut.CarbsG*factor))
		setIfNil(&it.FatG, round1(nut.FatG*factor))
		it.NutritionSource = nut.Source
	} else {
		// no gram-based amount to scale against: per-100g figures as-is,
		// flagged as an approximation
		it.Calories = f64(math.Round(nut.Calories))
		setIfNil(&it.ProteinG, round1(nut.ProteinG))
		setIfNil(&it.CarbsG, round1(nut.CarbsG))
		setIfNil(&it.FatG, round1(nut.FatG))
		it.NutritionSource = nut.Source + sourceUnscaledNote
	}
	logger.Debug("enriched food item", "name", it.Name, "product", nut.ProductName,
		"source", it.NutritionSource)
}

// RecalculateTotals derives entry-level totals from the item list. It runs
// unconditionally after enrichment and overwrites whatever totals the
// interpreter proposed. Items lacking numeric fields contribute zero.
func RecalculateTotals(items []FoodItem) FoodTotals {
	var cal, protein, carbs, fat float64
	for _, it := range items {
		mult := 1.0
		if !it.IsSpecifiedAmount() && it.Quantity != nil {
			mult = *it.Quantity
		}
		if it.Calories != nil {
			cal += *it.Calories * mult
		}
		if it.ProteinG != nil {
			protein += *it.ProteinG * mult
		}
		if it.CarbsG != nil {
			carbs += *it.CarbsG * mult
		}
		if it.FatG != nil {
			fat += *it.FatG * mult
		}
	}
	return FoodTotals{
		TotalCalories: math.Round(cal),
		TotalProteinG: roundTo1(protein),
		TotalCarbsG:   roundTo1(carbs),
		TotalFatG:     roundTo1(fat),
	}
}

func f64(v float64) *float64 { return &v }

func round1(v float64) *float64 { return f64(roundTo1(v)) }

func roundTo1(v float64) float64 { return math.Round(v*10) / 10 }

func setIfNil(dst **float64, v *float64) {
	if *dst == nil {
		*dst = v
	}
}
