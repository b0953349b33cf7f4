package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var (
	ErrLabOrderUnknown = errors.New("order not registered at lab")
	ErrLabRateLimited  = errors.New("lab rate limit exceeded")
)

// LabClient talks to the lab's production system, which owns every status
// change after submission.
type LabClient struct {
	baseURL string
	client  *http.Client
}

type LabOrderStatus struct {
	Order        string `json:"order"`
	Status       string `json:"status"`
	TrackingCode string `json:"tracking_code,omitempty"`
}

func NewLabClient(baseURL string, timeout time.Duration) *LabClient {
	return &LabClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *LabClient) GetStatus(ctx context.Context, orderID string) (*LabOrderStatus, error) {
	u := fmt.Sprintf("%s/api/orders/%s", c.baseURL, url.PathEscape(orderID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var res LabOrderStatus
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return &res, nil
	case http.StatusNoContent, http.StatusNotFound:
		return nil, ErrLabOrderUnknown
	case http.StatusTooManyRequests:
		return nil, ErrLabRateLimited
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unexpected status: %d, body: %s", resp.StatusCode, string(body))
	}
}
