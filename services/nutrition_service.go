package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/SaiCharanMahadevan/HealthTrackerApp/logger"
)

// MissReason says why a lookup produced no usable nutrition. All of them are
// recoverable: the caller falls back to the model's own estimate.
type MissReason string

const (
	MissNone        MissReason = ""
	MissNoMatch     MissReason = "no_match"
	MissMismatch    MissReason = "name_mismatch"
	MissIncomplete  MissReason = "incomplete_nutriments"
	MissUnavailable MissReason = "upstream_unavailable"
)

const kcalPerKJ = 4.184

type NutritionPer100g struct {
	Calories    float64
	ProteinG    float64
	CarbsG      float64
	FatG        float64
	ProductName string
	Source      string
}

// NutritionLookup is the adapter contract the enrichment engine depends on.
type NutritionLookup interface {
	Lookup(ctx context.Context, foodName string) (*NutritionPer100g, MissReason)
}

// OpenFoodFactsService queries the Open Food Facts keyword search and extracts
// per-100g macros from the top match.
type OpenFoodFactsService struct {
	baseURL string
	client  *http.Client
}

func NewOpenFoodFactsService(baseURL string, timeout time.Duration) *OpenFoodFactsService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OpenFoodFactsService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// offNutriments picks out only the per-100g fields of interest. Real OFF
// records mix string values (unit names) into the nutriments object, so the
// whole map cannot be decoded as numbers.
type offNutriments struct {
	EnergyKcal100g *float64 `json:"energy-kcal_100g"`
	EnergyKJ100g   *float64 `json:"energy_100g"`
	Proteins100g   *float64 `json:"proteins_100g"`
	Carbs100g      *float64 `json:"carbohydrates_100g"`
	Fat100g        *float64 `json:"fat_100g"`
}

type offSearchResponse struct {
	Count    int `json:"count"`
	Products []struct {
		ProductName string        `json:"product_name"`
		Nutriments  offNutriments `json:"nutriments"`
	} `json:"products"`
}

// Lookup never raises past this boundary: network and parse failures are
// reported as misses so that absent nutrition data stays recoverable.
func (s *OpenFoodFactsService) Lookup(ctx context.Context, foodName string) (*NutritionPer100g, MissReason) {
	q := url.Values{}
	q.Set("search_terms", foodName)
	q.Set("search_simple", "1")
	q.Set("action", "process")
	q.Set("json", "1")
	q.Set("page_size", "1")
	q.Set("fields", "product_name,nutriments")

	u := fmt.Sprintf("%s/api/v2/search?%s", s.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		logger.Error("failed to build OFF request", "err", err)
		return nil, MissUnavailable
	}

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Error("OFF request failed", "food", foodName, "err", err)
		return nil, MissUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		logger.Error("OFF returned an unusable response", "food", foodName, "status", resp.StatusCode)
		return nil, MissUnavailable
	}

	var sr offSearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		logger.Error("failed to parse OFF JSON", "food", foodName, "err", err)
		return nil, MissUnavailable
	}
	if sr.Count == 0 || len(sr.Products) == 0 {
		logger.Info("no OFF products found", "food", foodName)
		return nil, MissNoMatch
	}

	product := sr.Products[0]
	if !sharesSignificantToken(foodName, product.ProductName) {
		// a match that looks unrelated must never be silently substituted
		logger.Warn("OFF top match rejected as a name mismatch",
			"food", foodName, "product", product.ProductName)
		return nil, MissMismatch
	}

	nut := product.Nutriments
	calories := nut.EnergyKcal100g
	if calories == nil && nut.EnergyKJ100g != nil {
		// some records only carry kJ energy
		calories = f64(*nut.EnergyKJ100g / kcalPerKJ)
	}
	if calories == nil || nut.Proteins100g == nil || nut.Carbs100g == nil || nut.Fat100g == nil {
		logger.Warn("incomplete OFF nutriments", "food", foodName, "product", product.ProductName)
		return nil, MissIncomplete
	}

	return &NutritionPer100g{
		Calories:    *calories,
		ProteinG:    *nut.Proteins100g,
		CarbsG:      *nut.Carbs100g,
		FatG:        *nut.Fat100g,
		ProductName: product.ProductName,
		Source:      "OpenFoodFacts",
	}, MissNone
}

// sharesSignificantToken reports whether the query and product names share at
// least one case-insensitive token longer than two characters. Guards against
// the search engine returning an unrelated product for an obscure query.
func sharesSignificantToken(query, product string) bool {
	qTokens := significantTokens(query)
	pTokens := significantTokens(product)
	if len(qTokens) == 0 || len(pTokens) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(pTokens))
	for _, t := range pTokens {
		set[t] = struct{}{}
	}
	for _, t := range qTokens {
		if _, hit := set[t]; hit {
			return true
		}
	}
	return false
}

func significantTokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}
