package services

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	data   map[string]*NutritionPer100g
	misses map[string]MissReason
	calls  int
}

func (f *fakeLookup) Lookup(_ context.Context, name string) (*NutritionPer100g, MissReason) {
	f.calls++
	key := strings.ToLower(name)
	if r, ok := f.misses[key]; ok {
		return nil, r
	}
	if n, ok := f.data[key]; ok {
		cp := *n
		return &cp, MissNone
	}
	return nil, MissNoMatch
}

func TestRecalculateTotals_CountOfUnits(t *testing.T) {
	// "2 apples": per-unit nutrition scaled by count
	items := []FoodItem{
		{Name: "apple", Quantity: f64(2), Unit: "piece", Calories: f64(95), ProteinG: f64(0.5), CarbsG: f64(25), FatG: f64(0.3)},
	}

	totals := RecalculateTotals(items)

	assert.Equal(t, 190.0, totals.TotalCalories)
	assert.Equal(t, 1.0, totals.TotalProteinG)
	assert.Equal(t, 50.0, totals.TotalCarbsG)
	assert.Equal(t, 0.6, totals.TotalFatG)
}

func TestRecalculateTotals_SpecifiedAmountNotMultiplied(t *testing.T) {
	// a specified total amount fixes the multiplier at one even when the model
	// also reported a quantity
	items := []FoodItem{
		{Name: "shrimp", Quantity: f64(3), SpecifiedAmount: f64(50), SpecifiedUnit: "g", Calories: f64(50)},
	}

	totals := RecalculateTotals(items)
	assert.Equal(t, 50.0, totals.TotalCalories)
}

func TestRecalculateTotals_SkipsItemsWithoutNumbers(t *testing.T) {
	items := []FoodItem{
		{Name: "mystery stew"},
		{Name: "rice", Quantity: f64(1), Calories: f64(200), CarbsG: f64(44)},
	}

	totals := RecalculateTotals(items)
	assert.Equal(t, 200.0, totals.TotalCalories)
	assert.Equal(t, 44.0, totals.TotalCarbsG)
	assert.Equal(t, 0.0, totals.TotalProteinG)
}

func TestRecalculateTotals_RandomizedItemsMatchManualSum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 100; trial++ {
		n := rng.Intn(8)
		items := make([]FoodItem, 0, n)
		var wantCal float64
		for i := 0; i < n; i++ {
			it := FoodItem{Name: "item"}
			mult := 1.0
			if rng.Intn(2) == 0 {
				q := float64(1 + rng.Intn(5))
				it.Quantity = f64(q)
				mult = q
			} else {
				it.SpecifiedAmount = f64(float64(10 + rng.Intn(500)))
				it.SpecifiedUnit = "g"
			}
			if rng.Intn(4) != 0 { // some items stay null
				cal := float64(rng.Intn(900))
				it.Calories = f64(cal)
				wantCal += cal * mult
			}
			items = append(items, it)
		}

		totals := RecalculateTotals(items)
		assert.Equal(t, math.Round(wantCal), totals.TotalCalories, "trial %d", trial)
	}
}

func TestRecalculateTotals_Idempotent(t *testing.T) {
	items := []FoodItem{
		{Name: "toast", Quantity: f64(2), Calories: f64(160), ProteinG: f64(6), CarbsG: f64(30), FatG: f64(2)},
		{Name: "avocado", SpecifiedAmount: f64(70), SpecifiedUnit: "g", Calories: f64(112), FatG: f64(10.3)},
	}

	first := RecalculateTotals(items)
	second := RecalculateTotals(items)
	assert.Equal(t, first, second)
}

func TestEnrichAndTotal_SpecifiedGramsScaling(t *testing.T) {
	// "50g shrimp cooked": lookup says 99 kcal per 100g, so the enriched item
	// carries round(99 * 0.5) = 50 kcal, not a quantity-multiplied value
	lookup := &fakeLookup{data: map[string]*NutritionPer100g{
		"shrimp cooked": {Calories: 99, ProteinG: 24, CarbsG: 0.2, FatG: 0.3, ProductName: "Shrimp cooked", Source: "OpenFoodFacts"},
	}}
	svc := NewEnrichmentService(lookup)

	items := []FoodItem{
		{Name: "shrimp cooked", Quantity: f64(1), SpecifiedAmount: f64(50), SpecifiedUnit: "g"},
	}

	enriched, totals := svc.EnrichAndTotal(context.Background(), items)
	require.Len(t, enriched, 1)

	require.NotNil(t, enriched[0].Calories)
	assert.Equal(t, 50.0, *enriched[0].Calories)
	require.NotNil(t, enriched[0].ProteinG)
	assert.Equal(t, 12.0, *enriched[0].ProteinG)
	assert.Equal(t, "OpenFoodFacts", enriched[0].NutritionSource)
	assert.Equal(t, 50.0, totals.TotalCalories)
}

func TestEnrichAndTotal_UnscaledFallbackIsTagged(t *testing.T) {
	lookup := &fakeLookup{data: map[string]*NutritionPer100g{
		"paneer": {Calories: 296, ProteinG: 20, CarbsG: 6, FatG: 22, Source: "OpenFoodFacts"},
	}}
	svc := NewEnrichmentService(lookup)

	items := []FoodItem{{Name: "paneer", Quantity: f64(1), Unit: "serving"}}

	enriched, _ := svc.EnrichAndTotal(context.Background(), items)
	require.NotNil(t, enriched[0].Calories)
	assert.Equal(t, 296.0, *enriched[0].Calories)
	assert.Equal(t, "OpenFoodFacts (per 100g, unscaled)", enriched[0].NutritionSource)
}

func TestEnrichAndTotal_NeverOverwritesInterpreterEstimate(t *testing.T) {
	lookup := &fakeLookup{data: map[string]*NutritionPer100g{
		"apple": {Calories: 52, ProteinG: 0.3, CarbsG: 14, FatG: 0.2, Source: "OpenFoodFacts"},
	}}
	svc := NewEnrichmentService(lookup)

	items := []FoodItem{
		// explicit zero counts as an interpreter-supplied estimate
		{Name: "apple", Quantity: f64(2), Calories: f64(0), ProteinG: f64(0.5)},
		{Name: "apple", Quantity: f64(1), Calories: f64(95)},
	}

	enriched, _ := svc.EnrichAndTotal(context.Background(), items)

	assert.Equal(t, 0.0, *enriched[0].Calories)
	assert.Equal(t, 0.5, *enriched[0].ProteinG)
	assert.Equal(t, 95.0, *enriched[1].Calories)
	assert.Equal(t, SourceLLMProvided, enriched[0].NutritionSource)
	assert.Equal(t, SourceLLMProvided, enriched[1].NutritionSource)
	assert.Zero(t, lookup.calls, "items with estimates must not trigger lookups")
}

func TestEnrichAndTotal_MissReasonsBecomeSourceTags(t *testing.T) {
	lookup := &fakeLookup{misses: map[string]MissReason{
		"weird pastry": MissNoMatch,
		"dog food":     MissMismatch,
	}}
	svc := NewEnrichmentService(lookup)

	items := []FoodItem{
		{Name: "weird pastry", Quantity: f64(1)},
		{Name: "dog food", Quantity: f64(1)},
	}

	enriched, totals := svc.EnrichAndTotal(context.Background(), items)

	assert.Equal(t, SourceOFFNotFound, enriched[0].NutritionSource)
	assert.Equal(t, SourceOFFMismatch, enriched[1].NutritionSource)
	assert.Nil(t, enriched[0].Calories)
	assert.Nil(t, enriched[1].Calories)
	assert.Equal(t, 0.0, totals.TotalCalories)
}

func TestEnrichAndTotal_DoesNotMutateInput(t *testing.T) {
	lookup := &fakeLookup{data: map[string]*NutritionPer100g{
		"rice": {Calories: 130, ProteinG: 2.7, CarbsG: 28, FatG: 0.3, Source: "OpenFoodFacts"},
	}}
	svc := NewEnrichmentService(lookup)

	items := []FoodItem{{Name: "rice", Quantity: f64(1)}}
	_, _ = svc.EnrichAndTotal(context.Background(), items)

	assert.Nil(t, items[0].Calories)
	assert.Empty(t, items[0].NutritionSource)
}
