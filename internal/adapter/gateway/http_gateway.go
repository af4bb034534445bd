package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/starva/storefront/internal/core/domain"
)

// HTTPGateway talks to the remote storefront API: JSON in, JSON out, session
// cookie attached when configured. Transport-level failures run through a
// circuit breaker so a dead network stops burning requests quickly; API-level
// errors (non-2xx with a message) pass through untouched.
type HTTPGateway struct {
	baseURL string
	cookie  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*apiResponse]
}

type apiResponse struct {
	status int
	isJSON bool
	body   []byte
}

func NewHTTPGateway(baseURL, cookie string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	breaker := gobreaker.NewCircuitBreaker[*apiResponse](gobreaker.Settings{
		Name:    "storefront-api",
		Timeout: 30 * time.Second,
	})
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		cookie:  cookie,
		client:  client,
		breaker: breaker,
	}
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	endpoint := g.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	res, err := g.breaker.Execute(func() (*apiResponse, error) {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if g.cookie != "" {
			req.Header.Set("Cookie", g.cookie)
		}

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return &apiResponse{
			status: resp.StatusCode,
			isJSON: strings.Contains(resp.Header.Get("Content-Type"), "application/json"),
			body:   data,
		}, nil
	})
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if res.status < 200 || res.status > 299 {
		if res.isJSON {
			var payload struct {
				Error string `json:"error"`
			}
			if json.Unmarshal(res.body, &payload) == nil && payload.Error != "" {
				return fmt.Errorf("%s", payload.Error)
			}
		}
		return fmt.Errorf("API error: %d", res.status)
	}

	if out == nil {
		return nil
	}
	if !res.isJSON {
		return fmt.Errorf("unexpected API response")
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (g *HTTPGateway) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderSummary, error) {
	var summary domain.OrderSummary
	if err := g.do(ctx, http.MethodPost, "/orders", nil, req, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (g *HTTPGateway) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	if err := g.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (g *HTTPGateway) CancelOrder(ctx context.Context, orderID string) error {
	var res struct {
		Message string `json:"message"`
	}
	return g.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/cancel", nil, nil, &res)
}

func (g *HTTPGateway) InitiatePayment(ctx context.Context, orderID, phoneNumber string) (*domain.PaymentInitiation, error) {
	body := map[string]string{"phoneNumber": phoneNumber}
	var initiation domain.PaymentInitiation
	if err := g.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/pay", nil, body, &initiation); err != nil {
		return nil, err
	}
	return &initiation, nil
}

func (g *HTTPGateway) PaymentStatus(ctx context.Context, orderID, reference string) (string, error) {
	params := url.Values{"ref": {reference}}
	var res struct {
		Status string `json:"status"`
	}
	if err := g.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID)+"/payment-status", params, nil, &res); err != nil {
		return "", err
	}
	return res.Status, nil
}

func (g *HTTPGateway) ProductStock(ctx context.Context, productIDs []string, organizationID string) ([]domain.StockSnapshot, error) {
	params := url.Values{
		"ids":            {strings.Join(productIDs, ",")},
		"organizationId": {organizationID},
	}
	var res struct {
		OK     bool                   `json:"ok"`
		Stocks []domain.StockSnapshot `json:"stocks"`
	}
	if err := g.do(ctx, http.MethodGet, "/products/stock", params, nil, &res); err != nil {
		return nil, err
	}
	return res.Stocks, nil
}

func (g *HTTPGateway) LikeProduct(ctx context.Context, slug string) error {
	return g.do(ctx, http.MethodPost, "/products/"+url.PathEscape(slug)+"/like", nil, nil, nil)
}

func (g *HTTPGateway) UnlikeProduct(ctx context.Context, slug string) error {
	return g.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(slug)+"/like", nil, nil, nil)
}

func (g *HTTPGateway) FollowMerchant(ctx context.Context, slug string) error {
	return g.do(ctx, http.MethodPost, "/merchants/"+url.PathEscape(slug)+"/follow", nil, nil, nil)
}

func (g *HTTPGateway) UnfollowMerchant(ctx context.Context, slug string) error {
	return g.do(ctx, http.MethodDelete, "/merchants/"+url.PathEscape(slug)+"/follow", nil, nil, nil)
}
