// Package exchange provides wholesale exchange integration implementations.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"bullion-desk/internal/errors"
	"bullion-desk/internal/models"
)

// FizTradeClient implements the Exchange interface against the FizTrade
// wholesale trading API.
type FizTradeClient struct {
	baseURL    string
	accountID  string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// FizTradeConfig holds configuration for the FizTrade client.
type FizTradeConfig struct {
	BaseURL   string
	AccountID string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// NewFizTradeClient creates a new FizTrade exchange client.
func NewFizTradeClient(cfg FizTradeConfig) *FizTradeClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &FizTradeClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		accountID: cfg.AccountID,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Wire-format payloads. These mirror the exchange's own contract and stay
// private to this file.

type marketStatusResponse struct {
	IsOpen  bool   `json:"isOpen"`
	Message string `json:"message"`
}

type productResponse struct {
	Code         string  `json:"code"`
	Description  string  `json:"description"`
	Metal        string  `json:"metal"`
	Weight       float64 `json:"weight"`
	WeightUnit   string  `json:"weightUnit"`
	AskPrice     float64 `json:"askPrice"`
	BidPrice     float64 `json:"bidPrice"`
	Availability string  `json:"availability"`
	SellEnabled  bool    `json:"sellEnabled"`
}

type productPriceResponse struct {
	Code        string  `json:"code"`
	SellEnabled bool    `json:"sellEnabled"`
	AskPrice    float64 `json:"askPrice"`
	BidPrice    float64 `json:"bidPrice"`
}

type lockItemRequest struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
	Side     string `json:"side"`
}

type lockPricesRequest struct {
	AccountID     string            `json:"accountId"`
	TransactionID string            `json:"transactionId"`
	Items         []lockItemRequest `json:"items"`
}

type lockedPriceResponse struct {
	Code      string  `json:"code"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Extended  float64 `json:"extendedAmount"`
}

type lockPricesResponse struct {
	TransactionID string                `json:"transactionId"`
	LockToken     string                `json:"lockToken"`
	Prices        []lockedPriceResponse `json:"lockedPrices"`
	TotalCost     float64               `json:"totalCost"`
}

type dropShipRequest struct {
	Name       string `json:"name"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
}

type executeTradeRequest struct {
	AccountID       string           `json:"accountId"`
	TransactionID   string           `json:"transactionId"`
	LockToken       string           `json:"lockToken"`
	ReferenceNumber string           `json:"referenceNumber,omitempty"`
	ShippingOption  string           `json:"shippingOption"`
	DropShipInfo    *dropShipRequest `json:"dropShipInfo,omitempty"`
}

type executeTradeResponse struct {
	Status             string   `json:"status"`
	ConfirmationNumber string   `json:"confirmationNumber"`
	TransactionID      string   `json:"transactionId"`
	ShippingOption     string   `json:"shippingOption"`
	BustedItems        []string `json:"bustedItems"`
}

type apiError struct {
	Code    string `json:"errorCode"`
	Message string `json:"errorMessage"`
}

// GetMarketStatus fetches whether the exchange is open to trading.
func (c *FizTradeClient) GetMarketStatus(ctx context.Context) (*models.MarketStatus, error) {
	var resp marketStatusResponse
	if err := c.get(ctx, "/GetMarketStatus", &resp); err != nil {
		return nil, err
	}
	return &models.MarketStatus{
		IsOpen:    resp.IsOpen,
		Message:   resp.Message,
		FetchedAt: time.Now(),
	}, nil
}

// GetProductsByMetal fetches the sellable catalog for a metal.
// Availability levels are derived by the caller at snapshot load.
func (c *FizTradeClient) GetProductsByMetal(ctx context.Context, metal models.Metal) ([]models.Product, error) {
	var resp []productResponse
	if err := c.get(ctx, "/GetProductsByMetal/"+string(metal), &resp); err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(resp))
	for _, p := range resp {
		products = append(products, models.Product{
			Code:         p.Code,
			Description:  p.Description,
			Metal:        models.Metal(p.Metal),
			Weight:       p.Weight,
			WeightUnit:   models.WeightUnit(p.WeightUnit),
			AskPrice:     p.AskPrice,
			BidPrice:     p.BidPrice,
			Availability: p.Availability,
			SellEnabled:  p.SellEnabled,
		})
	}
	return products, nil
}

// GetProductPrice fetches current sellability and pricing for a single SKU.
func (c *FizTradeClient) GetProductPrice(ctx context.Context, sku string) (*ProductPrice, error) {
	var resp productPriceResponse
	if err := c.get(ctx, "/GetProductPrice/"+sku, &resp); err != nil {
		return nil, err
	}
	return &ProductPrice{
		SKU:         resp.Code,
		SellEnabled: resp.SellEnabled,
		AskPrice:    resp.AskPrice,
		BidPrice:    resp.BidPrice,
	}, nil
}

// LockPrices reserves exchange asks for the requested items.
func (c *FizTradeClient) LockPrices(ctx context.Context, req LockRequest) (*LockResponse, error) {
	body := lockPricesRequest{
		AccountID:     c.accountID,
		TransactionID: req.TransactionID,
	}
	for _, item := range req.Items {
		body.Items = append(body.Items, lockItemRequest{
			Code:     item.SKU,
			Quantity: item.Quantity,
			Side:     string(item.Side),
		})
	}

	var resp lockPricesResponse
	if err := c.post(ctx, "/LockPrices", body, &resp); err != nil {
		return nil, err
	}

	result := &LockResponse{
		TransactionID: resp.TransactionID,
		LockToken:     resp.LockToken,
		TotalCost:     resp.TotalCost,
	}
	for _, p := range resp.Prices {
		result.Prices = append(result.Prices, models.LockedPrice{
			SKU:       p.Code,
			Quantity:  p.Quantity,
			UnitPrice: p.UnitPrice,
			Extended:  p.Extended,
		})
	}
	return result, nil
}

// ExecuteTrade confirms a locked trade before the reservation lapses.
func (c *FizTradeClient) ExecuteTrade(ctx context.Context, req ExecuteRequest) (*ExecuteResponse, error) {
	body := executeTradeRequest{
		AccountID:       c.accountID,
		TransactionID:   req.TransactionID,
		LockToken:       req.LockToken,
		ReferenceNumber: req.ReferenceNumber,
		ShippingOption:  req.ShippingOption,
	}
	if req.DropShip != nil {
		body.DropShipInfo = &dropShipRequest{
			Name:       req.DropShip.Name,
			Address1:   req.DropShip.Address1,
			Address2:   req.DropShip.Address2,
			City:       req.DropShip.City,
			State:      req.DropShip.State,
			PostalCode: req.DropShip.PostalCode,
		}
	}

	var resp executeTradeResponse
	if err := c.post(ctx, "/ExecuteTrade", body, &resp); err != nil {
		return nil, err
	}

	return &ExecuteResponse{
		Status:             resp.Status,
		ConfirmationNumber: resp.ConfirmationNumber,
		TransactionID:      resp.TransactionID,
		ShippingOption:     resp.ShippingOption,
		BustedItems:        resp.BustedItems,
	}, nil
}

func (c *FizTradeClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, path, out)
}

func (c *FizTradeClient) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *FizTradeClient) do(req *http.Request, op string, out interface{}) error {
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Api-Secret", c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Keep the transport error in the chain: IsTimeout inspects it to
		// tell an uncertain outcome from a definitive failure.
		return fmt.Errorf("%s: %w: %w", op, errors.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(errors.ErrNetwork, "%s: reading response: %v", op, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Code != "" {
			return errors.NewExchangeError(op, apiErr.Code, apiErr.Message, nil)
		}
		return errors.NewExchangeError(op, fmt.Sprintf("HTTP_%d", resp.StatusCode), string(data), nil)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.NewExchangeError(op, "BAD_RESPONSE", "decoding response", err)
		}
	}
	return nil
}

// IsTimeout reports whether err is a network timeout or a lapsed context
// deadline. Callers use this to distinguish an uncertain execute outcome
// from a definitive failure.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// http.Client wraps timeouts in url.Error with a text marker
	return strings.Contains(err.Error(), "Client.Timeout exceeded")
}
