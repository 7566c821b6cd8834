package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bullion-desk/internal/errors"
	"bullion-desk/internal/models"
)

func newTestClient(handler http.Handler) (*FizTradeClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewFizTradeClient(FizTradeConfig{
		BaseURL:   server.URL,
		AccountID: "ACCT-1",
		APIKey:    "key",
		APISecret: "secret",
		Timeout:   2 * time.Second,
	})
	return client, server
}

func TestFizTradeAuthHeaders(t *testing.T) {
	var gotKey, gotSecret string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotSecret = r.Header.Get("X-Api-Secret")
		json.NewEncoder(w).Encode(map[string]interface{}{"isOpen": true})
	}))
	defer server.Close()

	if _, err := client.GetMarketStatus(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotKey != "key" || gotSecret != "secret" {
		t.Errorf("auth headers not sent: key=%q secret=%q", gotKey, gotSecret)
	}
}

func TestFizTradeGetMarketStatus(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/GetMarketStatus" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"isOpen":  false,
			"message": "Market closed for maintenance",
		})
	}))
	defer server.Close()

	status, err := client.GetMarketStatus(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if status.IsOpen {
		t.Error("expected closed market")
	}
	if status.Message != "Market closed for maintenance" {
		t.Errorf("unexpected message %q", status.Message)
	}
	if status.FetchedAt.IsZero() {
		t.Error("expected FetchedAt to be stamped")
	}
}

func TestFizTradeLockPricesWire(t *testing.T) {
	var captured map[string]interface{}
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/LockPrices" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"transactionId": "t-1",
			"lockToken":     "LT-99",
			"totalCost":     4825.00,
			"lockedPrices": []map[string]interface{}{
				{"code": "AGE-1OZ", "quantity": 2, "unitPrice": 2412.50, "extendedAmount": 4825.00},
			},
		})
	}))
	defer server.Close()

	resp, err := client.LockPrices(context.Background(), LockRequest{
		TransactionID: "t-1",
		Items:         []LockItem{{SKU: "AGE-1OZ", Quantity: 2, Side: models.OrderSideBuy}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.LockToken != "LT-99" {
		t.Errorf("expected LT-99, got %s", resp.LockToken)
	}
	if len(resp.Prices) != 1 || resp.Prices[0].Extended != 4825.00 {
		t.Errorf("prices not decoded: %+v", resp.Prices)
	}
	if captured["accountId"] != "ACCT-1" {
		t.Errorf("account ID not sent: %v", captured["accountId"])
	}
	if captured["transactionId"] != "t-1" {
		t.Errorf("transaction ID not sent: %v", captured["transactionId"])
	}
}

func TestFizTradeExecuteSendsDropShip(t *testing.T) {
	var captured struct {
		DropShipInfo *struct {
			PostalCode string `json:"postalCode"`
		} `json:"dropShipInfo"`
	}
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":             "EXECUTED",
			"confirmationNumber": "C-1",
			"transactionId":      "t-1",
		})
	}))
	defer server.Close()

	_, err := client.ExecuteTrade(context.Background(), ExecuteRequest{
		TransactionID: "t-1",
		LockToken:     "LT-1",
		DropShip: &models.Address{
			Name: "Jane Smith", Address1: "1 Main St", City: "Austin",
			State: "TX", PostalCode: "73301",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if captured.DropShipInfo == nil || captured.DropShipInfo.PostalCode != "73301" {
		t.Errorf("drop-ship info not sent: %+v", captured.DropShipInfo)
	}
}

func TestFizTradeAPIErrorMapping(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"errorCode":    "LOCK_LAPSED",
			"errorMessage": "lock token has expired",
		})
	}))
	defer server.Close()

	_, err := client.ExecuteTrade(context.Background(), ExecuteRequest{LockToken: "LT-1"})
	var exchangeErr *errors.ExchangeError
	if !errors.As(err, &exchangeErr) {
		t.Fatalf("expected ExchangeError, got %v", err)
	}
	if exchangeErr.Code != "LOCK_LAPSED" {
		t.Errorf("expected LOCK_LAPSED, got %s", exchangeErr.Code)
	}
}

func TestFizTradeTimeoutIsDetectable(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()
	client.httpClient.Timeout = 20 * time.Millisecond

	_, err := client.ExecuteTrade(context.Background(), ExecuteRequest{LockToken: "LT-1"})
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if !IsTimeout(err) {
		t.Errorf("timeout must be detectable through the wrap chain: %v", err)
	}
	if !errors.Is(err, errors.ErrNetwork) {
		t.Errorf("timeout must still classify as a network error: %v", err)
	}
}

func TestIsTimeout(t *testing.T) {
	if IsTimeout(nil) {
		t.Error("nil is not a timeout")
	}
	if IsTimeout(errors.ErrMarketClosed) {
		t.Error("sentinel is not a timeout")
	}
	if !IsTimeout(context.DeadlineExceeded) {
		t.Error("context deadline is a timeout")
	}
	if !IsTimeout(errors.Wrap(context.DeadlineExceeded, "Post /ExecuteTrade")) {
		t.Error("wrapped context deadline is a timeout")
	}
}
