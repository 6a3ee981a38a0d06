package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/search", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page_size"))
		assert.Equal(t, "product_name,nutriments", r.URL.Query().Get("fields"))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOFFLookup_Found(t *testing.T) {
	srv := offServer(t, http.StatusOK, `{
		"count": 1,
		"products": [{
			"product_name": "Cooked shrimp",
			"nutriments": {
				"energy-kcal_100g": 99,
				"proteins_100g": 24,
				"carbohydrates_100g": 0.2,
				"fat_100g": 0.3
			}
		}]
	}`)
	svc := NewOpenFoodFactsService(srv.URL, time.Second)

	nut, miss := svc.Lookup(context.Background(), "shrimp")

	require.Equal(t, MissNone, miss)
	require.NotNil(t, nut)
	assert.Equal(t, 99.0, nut.Calories)
	assert.Equal(t, 24.0, nut.ProteinG)
	assert.Equal(t, "Cooked shrimp", nut.ProductName)
	assert.Equal(t, "OpenFoodFacts", nut.Source)
}

func TestOFFLookup_ToleratesUnitStringsInNutriments(t *testing.T) {
	// real OFF records interleave unit-name strings with the numeric per-100g
	// fields; decoding must not choke on them
	srv := offServer(t, http.StatusOK, `{
		"count": 1,
		"products": [{
			"product_name": "Greek yogurt",
			"nutriments": {
				"energy_unit": "kcal",
				"energy-kcal_100g": 59,
				"energy_100g": 247,
				"proteins_unit": "g",
				"proteins_100g": 10,
				"carbohydrates_unit": "g",
				"carbohydrates_100g": 3.6,
				"fat_unit": "g",
				"fat_100g": 0.4,
				"salt_100g": 0.1,
				"nova-group": 1
			}
		}]
	}`)
	svc := NewOpenFoodFactsService(srv.URL, time.Second)

	nut, miss := svc.Lookup(context.Background(), "greek yogurt")

	require.Equal(t, MissNone, miss)
	require.NotNil(t, nut)
	assert.Equal(t, 59.0, nut.Calories, "kcal field wins over kJ when both exist")
	assert.Equal(t, 10.0, nut.ProteinG)
	assert.Equal(t, 3.6, nut.CarbsG)
	assert.Equal(t, 0.4, nut.FatG)
}

func TestOFFLookup_KilojouleFallback(t *testing.T) {
	srv := offServer(t, http.StatusOK, `{
		"count": 1,
		"products": [{
			"product_name": "Basmati rice",
			"nutriments": {
				"energy_100g": 544,
				"proteins_100g": 2.7,
				"carbohydrates_100g": 28,
				"fat_100g": 0.3
			}
		}]
	}`)
	svc := NewOpenFoodFactsService(srv.URL, time.Second)

	nut, miss := svc.Lookup(context.Background(), "rice")

	require.Equal(t, MissNone, miss)
	assert.InDelta(t, 544/4.184, nut.Calories, 0.001)
}

func TestOFFLookup_NoMatch(t *testing.T) {
	srv := offServer(t, http.StatusOK, `{"count": 0, "products": []}`)
	svc := NewOpenFoodFactsService(srv.URL, time.Second)

	nut, miss := svc.Lookup(context.Background(), "weird pastry")
	assert.Nil(t, nut)
	assert.Equal(t, MissNoMatch, miss)
}

func TestOFFLookup_NameMismatchRejected(t *testing.T) {
	srv := offServer(t, http.StatusOK, `{
		"count": 1,
		"products": [{
			"product_name": "Premium dog biscuits",
			"nutriments": {
				"energy-kcal_100g": 300,
				"proteins_100g": 20,
				"carbohydrates_100g": 40,
				"fat_100g": 8
			}
		}]
	}`)
	svc := NewOpenFoodFactsService(srv.URL, time.Second)

	nut, miss := svc.Lookup(context.Background(), "quinoa salad")
	assert.Nil(t, nut)
	assert.Equal(t, MissMismatch, miss)
}

func TestOFFLookup_IncompleteNutriments(t *testing.T) {
	srv := offServer(t, http.StatusOK, `{
		"count": 1,
		"products": [{
			"product_name": "Apple juice",
			"nutriments": {"energy-kcal_100g": 46}
		}]
	}`)
	svc := NewOpenFoodFactsService(srv.URL, time.Second)

	nut, miss := svc.Lookup(context.Background(), "apple juice")
	assert.Nil(t, nut)
	assert.Equal(t, MissIncomplete, miss)
}

func TestOFFLookup_UpstreamError(t *testing.T) {
	srv := offServer(t, http.StatusInternalServerError, `oops`)
	svc := NewOpenFoodFactsService(srv.URL, time.Second)

	nut, miss := svc.Lookup(context.Background(), "apple")
	assert.Nil(t, nut)
	assert.Equal(t, MissUnavailable, miss)
}

func TestOFFLookup_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	svc := NewOpenFoodFactsService(srv.URL, time.Second)

	nut, miss := svc.Lookup(context.Background(), "apple")
	assert.Nil(t, nut)
	assert.Equal(t, MissUnavailable, miss)
}

func TestSharesSignificantToken(t *testing.T) {
	cases := []struct {
		query, product string
		want           bool
	}{
		{"shrimp", "Cooked Shrimp", true},
		{"quinoa salad", "Premium dog biscuits", false},
		{"an of it", "of an it", false}, // short words carry no signal
		{"Greek yogurt", "Yogurt, greek style", true},
		{"", "Apple", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sharesSignificantToken(tc.query, tc.product),
			"query=%q product=%q", tc.query, tc.product)
	}
}
