package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/table-order/utils"
)

var ErrPaymentUnavailable = errors.New("payment provider is not configured")

// PaymentConfig holds the hosted checkout credentials.
type PaymentConfig struct {
	AccessToken     string
	BaseURL         string
	NotificationURL string
	Currency        string
}

// PaymentItem is one line sent to the checkout.
type PaymentItem struct {
	MenuItemID uint
	Name       string
	Price      decimal.Decimal
	Quantity   int
}

// Preference is the opaque reference the payment widget is opened with.
type Preference struct {
	ID                string `json:"id"`
	InitPoint         string `json:"init_point,omitempty"`
	ExternalReference string `json:"external_reference"`
}

// PaymentService creates checkout preferences on a MercadoPago style API.
type PaymentService struct {
	config     *PaymentConfig
	httpClient *http.Client
}

func NewPaymentService(config *PaymentConfig) *PaymentService {
	return &PaymentService{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (ps *PaymentService) ValidateConfig() error {
	if ps.config == nil || ps.config.AccessToken == "" {
		return fmt.Errorf("%w: PAYMENT_ACCESS_TOKEN is not set", ErrPaymentUnavailable)
	}
	if ps.config.BaseURL == "" {
		return fmt.Errorf("%w: PAYMENT_BASE_URL is not set", ErrPaymentUnavailable)
	}
	return nil
}

type preferenceItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type preferenceRequest struct {
	Items             []preferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url,omitempty"`
}

// CreatePreference registers the items with the provider and returns the
// preference id.
func (ps *PaymentService) CreatePreference(ctx context.Context, items []PaymentItem) (*Preference, error) {
	if err := ps.ValidateConfig(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	payload := preferenceRequest{
		ExternalReference: uuid.NewString(),
		NotificationURL:   ps.config.NotificationURL,
	}
	currency := ps.config.Currency
	if currency == "" {
		currency = "ARS"
	}
	for _, it := range items {
		payload.Items = append(payload.Items, preferenceItem{
			ID:         strconv.FormatUint(uint64(it.MenuItemID), 10),
			Title:      it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.Price.InexactFloat64(),
			CurrencyID: currency,
		})
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	url := ps.config.BaseURL + "/checkout/preferences"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ps.config.AccessToken)
	req.Header.Set("X-Idempotency-Key", payload.ExternalReference)

	resp, err := ps.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		utils.ErrorLogger.Printf("payment preference rejected (status %d): %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("payment API error: status %d", resp.StatusCode)
	}

	var pref Preference
	if err := json.Unmarshal(body, &pref); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}
	if pref.ID == "" {
		return nil, errors.New("payment API returned no preference id")
	}
	if pref.ExternalReference == "" {
		pref.ExternalReference = payload.ExternalReference
	}

	utils.InfoLogger.Printf("Payment preference %s created for %d items", pref.ID, len(items))
	return &pref, nil
}
