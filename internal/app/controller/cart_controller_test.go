package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartController_RequiresSession(t *testing.T) {
	s := setupControllerTest(t)

	w := s.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "SESSION_REQUIRED", decode(t, w)["error"])
}

func TestCartController_AddAndView(t *testing.T) {
	s := setupControllerTest(t)
	headphones := s.product(t, "Wireless Headphones", "199.99", 5)
	lamp := s.product(t, "Desk Lamp", "19.99", 5)

	w := s.do(t, http.MethodPost, "/api/v1/cart", testSession, map[string]interface{}{
		"product_id": headphones.ID,
		"quantity":   1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// same product merges into the existing line
	w = s.do(t, http.MethodPost, "/api/v1/cart", testSession, map[string]interface{}{
		"product_id": headphones.ID,
		"quantity":   1,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["item"].(map[string]interface{})["quantity"])

	// quantity defaults to one
	w = s.do(t, http.MethodPost, "/api/v1/cart", testSession, map[string]interface{}{
		"product_id": lamp.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/cart", testSession, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["items"], 2)
	assert.EqualValues(t, 3, body["count"])
	assert.Equal(t, "419.97", money(t, body["subtotal"]))

	// another session sees its own empty cart
	w = s.do(t, http.MethodGet, "/api/v1/cart", "session-b", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["count"])
}

func TestCartController_AddRejections(t *testing.T) {
	s := setupControllerTest(t)
	lamp := s.product(t, "Desk Lamp", "19.99", 2)

	w := s.do(t, http.MethodPost, "/api/v1/cart", testSession, map[string]interface{}{
		"product_id": lamp.ID,
		"quantity":   3,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "PRODUCT_INSUFFICIENT_STOCK", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/api/v1/cart", testSession, map[string]interface{}{
		"product_id": 9999,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/cart", testSession, map[string]interface{}{
		"quantity": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "is required", decode(t, w)["fields"].(map[string]interface{})["product_id"])

	w = s.do(t, http.MethodPost, "/api/v1/cart", testSession, map[string]interface{}{
		"product_id": lamp.ID,
		"quantity":   0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_INVALID_INPUT", decode(t, w)["error"])
}

func TestCartController_UpdateAndRemove(t *testing.T) {
	s := setupControllerTest(t)
	lamp := s.product(t, "Desk Lamp", "19.99", 5)

	w := s.do(t, http.MethodPost, "/api/v1/cart", testSession, map[string]interface{}{"product_id": lamp.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	lineID := uint(decode(t, w)["item"].(map[string]interface{})["id"].(float64))
	path := fmt.Sprintf("/api/v1/cart/%d", lineID)

	w = s.do(t, http.MethodPatch, path, testSession, map[string]interface{}{"quantity": 4})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "79.96", money(t, decode(t, w)["item"].(map[string]interface{})["line_total"]))

	w = s.do(t, http.MethodPatch, path, testSession, map[string]interface{}{"quantity": 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, path, testSession, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// lines of other sessions are invisible
	w = s.do(t, http.MethodPatch, path, "session-b", map[string]interface{}{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodDelete, path, "session-b", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPatch, path, testSession, map[string]interface{}{"quantity": 0})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodDelete, path, testSession, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartController_RemoveAndClear(t *testing.T) {
	s := setupControllerTest(t)
	lamp := s.product(t, "Desk Lamp", "19.99", 5)
	watch := s.product(t, "Watch", "99.00", 5)

	w := s.do(t, http.MethodPost, "/api/v1/cart", testSession, map[string]interface{}{"product_id": lamp.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	lineID := uint(decode(t, w)["item"].(map[string]interface{})["id"].(float64))
	w = s.do(t, http.MethodPost, "/api/v1/cart", testSession, map[string]interface{}{"product_id": watch.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/cart/%d", lineID), testSession, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/cart", testSession, nil)
	assert.Len(t, decode(t, w)["items"], 1)

	w = s.do(t, http.MethodDelete, "/api/v1/cart", testSession, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/cart", testSession, nil)
	assert.Len(t, decode(t, w)["items"], 0)
}
