package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChargeApproved(t *testing.T) {
	token := uuid.NewString()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Token token=test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(4900), body["amount"])
		assert.Equal(t, "4242424242424242", body["card_number"])
		assert.Equal(t, "123", body["cvv"])
		assert.Equal(t, "01", body["expiration_month"])
		assert.Equal(t, float64(3000), body["expiration_year"])
		assert.Equal(t, "33004", body["zip_code"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"token":      token,
			"success":    true,
			"error_code": nil,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	result, err := client.Charge(context.Background(), ChargeRequest{
		Amount:          4900,
		CardNumber:      "4242424242424242",
		CVV:             "123",
		ExpirationMonth: "01",
		ExpirationYear:  3000,
		ZipCode:         "33004",
	})

	require.NoError(t, err)
	assert.True(t, result.Approved())
	assert.Equal(t, token, result.Token)
}

func TestChargeDeclined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token":      nil,
			"success":    false,
			"error_code": 1000002,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	result, err := client.Charge(context.Background(), ChargeRequest{Amount: 4900})

	require.NoError(t, err)
	assert.False(t, result.Approved())
	require.NotNil(t, result.Declined)
	assert.Equal(t, 1000002, result.Declined.Code)
}

func TestChargeTransportFailureOnConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "test-key")
	_, err := client.Charge(context.Background(), ChargeRequest{Amount: 4900})

	assert.Error(t, err)
}

func TestChargeTransportFailureOnMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>gateway exploded</html>")
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	_, err := client.Charge(context.Background(), ChargeRequest{Amount: 4900})

	assert.Error(t, err)
}

func TestChargeTransportFailureOnTokenlessSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token":      "",
			"success":    true,
			"error_code": nil,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	_, err := client.Charge(context.Background(), ChargeRequest{Amount: 4900})

	assert.Error(t, err)
}

func TestChargeHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"token": "never-seen", "error_code": nil})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL, "test-key")
	_, err := client.Charge(ctx, ChargeRequest{Amount: 4900})

	assert.Error(t, err)
}
