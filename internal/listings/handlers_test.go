package listings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlersTest(t *testing.T) (*fiber.App, *Handlers) {
	svc, _ := setupService(t)
	h := &Handlers{Service: svc}
	app := fiber.New()
	app.Get("/listings/", h.GetListings)
	app.Put("/listings/", h.UpsertListings)
	return app, h
}

func putListings(t *testing.T, app *fiber.App, payload interface{}) map[string]interface{} {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest("PUT", "/listings/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func TestHandlers_UpsertThenGetRoundtrip(t *testing.T) {
	app, h := setupHandlersTest(t)

	result := putListings(t, app, fiber.Map{
		"listings": []fiber.Map{{
			"listing_id":   "L1",
			"scan_date":    "2024-03-01 10:00:00",
			"is_active":    true,
			"image_hashes": []string{"h1", "h2"},
			"properties":   []fiber.Map{{"name": "color", "type": "str", "value": "red"}},
			"entities":     []fiber.Map{{"name": "airbnb", "data": fiber.Map{"region": "eu"}}},
		}},
	})
	assert.Equal(t, "success", result["status"])
	assert.Nil(t, result["error"])

	req := httptest.NewRequest("GET", "/listings/?is_active=true&image_hashes=h2&image_hashes=h9", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var got struct {
		Listings []ListingView `json:"listings"`
		Total    int           `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 1, got.Total)
	require.Len(t, got.Listings, 1)
	assert.Equal(t, "L1", got.Listings[0].ListingID)
	assert.Equal(t, "2024-03-01 10:00:00", got.Listings[0].ScanDate)
	require.Len(t, got.Listings[0].Entities, 1)
	assert.Equal(t, "airbnb", got.Listings[0].Entities[0].Name)

	// Property filter by the id the registry assigned.
	var prop struct{ PropertyID int64 }
	require.NoError(t, h.Service.DB.Table("properties").Where("name = ?", "color").Scan(&prop).Error)
	req = httptest.NewRequest("GET", fmt.Sprintf(`/listings/?properties={"%d":"red"}`, prop.PropertyID), nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 1, got.Total)
}

func TestHandlers_UpsertFailureNamesListing(t *testing.T) {
	app, _ := setupHandlersTest(t)

	result := putListings(t, app, fiber.Map{
		"listings": []fiber.Map{
			{
				"listing_id": "L1",
				"properties": []fiber.Map{{"name": "amenity", "type": "str", "value": "pool"}},
				"entities":   []fiber.Map{{"name": "airbnb", "data": fiber.Map{}}},
			},
			{
				"listing_id": "L2",
				"properties": []fiber.Map{{"name": "amenity", "type": "bool", "value": "true"}},
				"entities":   []fiber.Map{{"name": "airbnb", "data": fiber.Map{}}},
			},
		},
	})
	assert.Equal(t, "failed", result["status"])
	errObj, ok := result["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "L2", errObj["listing_id"])
}

func TestHandlers_InvalidPropertiesFilter(t *testing.T) {
	app, _ := setupHandlersTest(t)

	req := httptest.NewRequest("GET", "/listings/?properties=not-json", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandlers_InvalidBody(t *testing.T) {
	app, _ := setupHandlersTest(t)

	req := httptest.NewRequest("PUT", "/listings/", bytes.NewReader([]byte("{broken")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandlers_InvalidIsActive(t *testing.T) {
	app, _ := setupHandlersTest(t)

	req := httptest.NewRequest("GET", "/listings/?is_active=maybe", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}
