package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tabletour/tabletour/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com/v1"

// Sentinel errors distinguishing "the provider does not know this resource"
// from transient transport/provider failures. The sweep treats the former as
// irrecoverable drift and the latter as skip-and-retry-later.
var (
	ErrSubscriptionNotFound = errors.New("subscription not found at payment provider")
	ErrCustomerNotFound     = errors.New("customer not found at payment provider")
)

// ProviderClient is the payment-provider surface the billing service
// consumes. GetSubscription is the only call the reconciliation sweep makes;
// the rest serve the checkout session builder.
type ProviderClient interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)
	GetCustomer(ctx context.Context, customerID string) (*ProviderCustomer, error)
	CreateCustomer(ctx context.Context, email, name string) (*ProviderCustomer, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*ProviderCheckoutSession, error)
}

type ProviderSubscription struct {
	ID                string
	Status            string
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  *time.Time
}

type ProviderCustomer struct {
	ID    string
	Email string
}

type LineItem struct {
	PriceID  string
	Quantity int
}

type CheckoutSessionParams struct {
	CustomerID string
	LineItems  []LineItem
	Metadata   map[string]string
	SuccessURL string
	CancelURL  string
}

type ProviderCheckoutSession struct {
	ID  string
	URL string
}

type StripeClient struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

func NewStripeClientFromEnv() *StripeClient {
	return &StripeClient{
		SecretKey:  strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// stripeError mirrors the provider's error envelope.
type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *StripeClient) GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error) {
	id := strings.TrimSpace(subscriptionID)
	if id == "" {
		return nil, errors.New("subscription id is required")
	}

	body, err := c.do(ctx, http.MethodGet, "/subscriptions/"+url.PathEscape(id), nil, ErrSubscriptionNotFound)
	if err != nil {
		return nil, err
	}

	var raw struct {
		ID                string `json:"id"`
		Status            string `json:"status"`
		CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
		CurrentPeriodEnd  int64  `json:"current_period_end"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, errors.New("stripe subscription response missing id")
	}

	sub := &ProviderSubscription{
		ID:                raw.ID,
		Status:            strings.ToLower(strings.TrimSpace(raw.Status)),
		CancelAtPeriodEnd: raw.CancelAtPeriodEnd,
	}
	if raw.CurrentPeriodEnd > 0 {
		t := time.Unix(raw.CurrentPeriodEnd, 0).UTC()
		sub.CurrentPeriodEnd = &t
	}
	return sub, nil
}

func (c *StripeClient) GetCustomer(ctx context.Context, customerID string) (*ProviderCustomer, error) {
	id := strings.TrimSpace(customerID)
	if id == "" {
		return nil, errors.New("customer id is required")
	}

	body, err := c.do(ctx, http.MethodGet, "/customers/"+url.PathEscape(id), nil, ErrCustomerNotFound)
	if err != nil {
		return nil, err
	}

	var raw struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Deleted bool   `json:"deleted"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if raw.Deleted {
		return nil, ErrCustomerNotFound
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, errors.New("stripe customer response missing id")
	}
	return &ProviderCustomer{ID: raw.ID, Email: raw.Email}, nil
}

func (c *StripeClient) CreateCustomer(ctx context.Context, email, name string) (*ProviderCustomer, error) {
	form := url.Values{}
	if e := strings.TrimSpace(email); e != "" {
		form.Set("email", e)
	}
	if n := strings.TrimSpace(name); n != "" {
		form.Set("name", n)
	}

	body, err := c.do(ctx, http.MethodPost, "/customers", form, nil)
	if err != nil {
		return nil, err
	}

	var raw struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, errors.New("stripe customer creation returned empty id")
	}
	return &ProviderCustomer{ID: raw.ID, Email: raw.Email}, nil
}

func (c *StripeClient) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*ProviderCheckoutSession, error) {
	if strings.TrimSpace(params.CustomerID) == "" {
		return nil, errors.New("customer id is required")
	}
	if len(params.LineItems) == 0 {
		return nil, errors.New("at least one line item is required")
	}

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("customer", params.CustomerID)
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	for i, item := range params.LineItems {
		form.Set(fmt.Sprintf("line_items[%d][price]", i), item.PriceID)
		form.Set(fmt.Sprintf("line_items[%d][quantity]", i), fmt.Sprintf("%d", item.Quantity))
	}
	for k, v := range params.Metadata {
		form.Set(fmt.Sprintf("subscription_data[metadata][%s]", k), v)
	}

	body, err := c.do(ctx, http.MethodPost, "/checkout/sessions", form, nil)
	if err != nil {
		return nil, err
	}

	var raw struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.URL) == "" {
		return nil, errors.New("stripe checkout session returned empty url")
	}
	return &ProviderCheckoutSession{ID: raw.ID, URL: raw.URL}, nil
}

// do executes one provider call. A 404 or a resource_missing error code maps
// to notFoundErr when given; every other non-2xx response surfaces as an
// error carrying status and body text.
func (c *StripeClient) do(ctx context.Context, method, path string, form url.Values, notFoundErr error) ([]byte, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is not configured")
	}

	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.APIBaseURL, "/")+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	if notFoundErr != nil {
		var stripeErr stripeError
		if resp.StatusCode == http.StatusNotFound {
			return nil, notFoundErr
		}
		if json.Unmarshal(body, &stripeErr) == nil && stripeErr.Error.Code == "resource_missing" {
			return nil, notFoundErr
		}
	}
	return nil, fmt.Errorf("stripe %s %s failed: status=%d body=%s", method, path, resp.StatusCode, string(body))
}
