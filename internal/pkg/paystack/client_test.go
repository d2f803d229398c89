package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		w.Write([]byte(`{
			"status": true,
			"message": "Authorization URL created",
			"data": {
				"authorization_url": "https://checkout.paystack.com/abc123",
				"access_code": "abc123",
				"reference": "AWD-001"
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_x", false)
	result, err := client.Initialize(context.Background(), &InitializeRequest{
		Amount:    10000,
		Currency:  "NGN",
		Email:     "voter@example.com",
		Reference: "AWD-001",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc123", result.AuthorizationURL)
	assert.Equal(t, "AWD-001", result.Reference)
	assert.Equal(t, "Bearer sk_test_x", gotAuth)
}

func TestInitializeRejectsNonPositiveAmount(t *testing.T) {
	client := NewClient("", "sk_test_x", false)
	_, err := client.Initialize(context.Background(), &InitializeRequest{Amount: 0})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestInitializeGatewayRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status": false, "message": "Invalid key"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_x", false)
	_, err := client.Initialize(context.Background(), &InitializeRequest{Amount: 10000, Reference: "AWD-001"})
	assert.ErrorIs(t, err, ErrInitializeFailed)
}

func TestVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/AWD-001", r.URL.Path)
		w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {
				"status": "success",
				"amount": 10000,
				"currency": "NGN",
				"paid_at": "2026-03-01T12:00:00Z",
				"metadata": {"user_id": 7, "category_id": 3, "nominee_id": 5}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_x", false)
	result, err := client.Verify(context.Background(), "AWD-001")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, int64(10000), result.AmountPaid)
	assert.Equal(t, "NGN", result.Currency)
	require.NotNil(t, result.PaidAt)
	assert.Equal(t, Metadata{UserID: 7, CategoryID: 3, NomineeID: 5}, result.Metadata)
}

func TestVerifyUnknownReference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status": false, "message": "Transaction reference not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_x", false)
	_, err := client.Verify(context.Background(), "AWD-missing")
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestVerifyServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_x", false)
	_, err := client.Verify(context.Background(), "AWD-001")
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestMockModeRoundTrip(t *testing.T) {
	client := NewClient("", "sk_test_x", true)
	ctx := context.Background()

	result, err := client.Initialize(ctx, &InitializeRequest{
		Amount:    10000,
		Currency:  "NGN",
		Email:     "voter@example.com",
		Reference: "AWD-001",
		Metadata:  Metadata{UserID: 7, CategoryID: 3, NomineeID: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, "AWD-001", result.Reference)
	assert.Contains(t, result.AuthorizationURL, "AWD-001")

	verify, err := client.Verify(ctx, "AWD-001")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, verify.Status)
	assert.Equal(t, int64(10000), verify.AmountPaid)
	assert.Equal(t, Metadata{UserID: 7, CategoryID: 3, NomineeID: 5}, verify.Metadata)

	_, err = client.Verify(ctx, "AWD-unknown")
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestValidateSignature(t *testing.T) {
	client := NewClient("", "sk_test_x", true)
	body := []byte(`{"event":"charge.success","data":{"reference":"AWD-001"}}`)

	mac := hmac.New(sha512.New, []byte("sk_test_x"))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.ValidateSignature(body, signature))
	assert.False(t, client.ValidateSignature(body, "deadbeef"))
	assert.False(t, client.ValidateSignature([]byte(`tampered`), signature))
}
