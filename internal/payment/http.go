package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ritvika/paintshop/internal/common"
	"github.com/sethvargo/go-retry"
)

// HTTPGateway submits charges to a Stripe-style HTTP endpoint using a
// form-encoded POST. It is constructed once at process start and injected
// into the checkout service; it holds no mutable state.
type HTTPGateway struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	client   *http.Client
}

func NewHTTPGateway(endpoint, apiKey string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		endpoint: endpoint,
		apiKey:   apiKey,
		timeout:  timeout,
		client:   &http.Client{},
	}
}

type chargeResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	FailureMessage string `json:"failure_message"`
}

// Charge submits the charge with a bounded timeout, retrying transient
// gateway errors (HTTP 5xx) with exponential backoff. A deadline hit is
// classified as common.ErrChargeUnconfirmed: the submission may have gone
// through, so the caller must not assume either outcome.
func (g *HTTPGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountCents, 10))
	form.Set("currency", req.Currency)
	form.Set("source", req.SourceToken)
	form.Set("description", req.Description)
	form.Set("metadata[order_id]", req.OrderID)

	var result *ChargeResult

	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

		resp, err := g.client.Do(httpReq)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return err
			}
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("gateway unavailable: %s", resp.Status))
		}

		var body chargeResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("decoding gateway response: %w", err)
		}

		if resp.StatusCode >= 400 {
			result = &ChargeResult{Accepted: false, ProviderRef: body.ID, Reason: body.FailureMessage}
			return nil
		}

		result = &ChargeResult{Accepted: true, ProviderRef: body.ID}
		return nil
	})

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("charge for order %s: %w", req.OrderID, common.ErrChargeUnconfirmed)
		}
		return nil, fmt.Errorf("charge for order %s: %w", req.OrderID, err)
	}

	return result, nil
}
