package cardgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yelmuratov/NewEra-Cash-Carry/internal/payment/domain"
)

// Client talks to the card processor's form-encoded HTTP API. It never
// decides settlement state; it only reports what the processor said, and a
// timeout is reported as unknown outcome rather than failure or success.
type Client struct {
	log     *slog.Logger
	httpc   *http.Client
	baseURL string
	apiKey  string
}

func NewClient(log *slog.Logger, baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		log:     log,
		httpc:   &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (c *Client) CreateCharge(ctx context.Context, amountCents int64, currency string) (domain.Charge, error) {
	form := url.Values{
		"amount":   {strconv.FormatInt(amountCents, 10)},
		"currency": {currency},
	}
	ref, err := c.post(ctx, "/v1/charges", form, "charge")
	if err != nil {
		return domain.Charge{}, err
	}
	return domain.Charge{Ref: ref}, nil
}

func (c *Client) CreateRefund(ctx context.Context, chargeRef string) (domain.Refund, error) {
	form := url.Values{
		"charge": {chargeRef},
	}
	ref, err := c.post(ctx, "/v1/refunds", form, "refund")
	if err != nil {
		return domain.Refund{}, err
	}
	return domain.Refund{Ref: ref}, nil
}

type apiResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, form url.Values, op string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			c.log.Warn("gateway call timed out", "op", op)
			return "", &domain.GatewayError{
				Message:   fmt.Sprintf("%s outcome unknown: request timed out, retry or reconcile", op),
				Transient: true,
			}
		}
		return "", &domain.GatewayError{Message: err.Error(), Transient: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &domain.GatewayError{Message: err.Error(), Transient: true}
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &domain.GatewayError{
			Message:   fmt.Sprintf("malformed %s response: %v", op, err),
			Transient: resp.StatusCode >= 500,
		}
	}

	if resp.StatusCode >= 400 || parsed.Error != nil {
		msg := fmt.Sprintf("%s declined with status %d", op, resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", &domain.GatewayError{Message: msg, Transient: resp.StatusCode >= 500}
	}
	if parsed.ID == "" {
		return "", &domain.GatewayError{Message: fmt.Sprintf("%s response missing id", op)}
	}
	return parsed.ID, nil
}

func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
