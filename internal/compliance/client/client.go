package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cazfleet/accounts/internal/compliance/domain"
	"github.com/cazfleet/accounts/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	cleanAirZonesPath  = "/v1/compliance-checker/clean-air-zones"
	bulkCompliancePath = "/v1/compliance-checker/bulk-compliance"
)

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func New(p Params) domain.Client {
	timeout := p.Config.ComplianceTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: p.Config.ComplianceBaseURL,
		http:    &http.Client{Timeout: timeout},
		log:     p.Log.Named("compliance.client"),
	}
}

type cleanAirZonesResponse struct {
	CleanAirZones []domain.Zone `json:"cleanAirZones"`
}

func (c *Client) CleanAirZones(ctx context.Context) ([]domain.Zone, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+cleanAirZonesPath, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var parsed cleanAirZonesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode clean air zones: %w", err)
	}
	return parsed.CleanAirZones, nil
}

type bulkComplianceRequest struct {
	VRNs []string `json:"vrns"`
}

func (c *Client) BulkCompliance(ctx context.Context, vrns []string) ([]domain.Outcome, error) {
	payload, err := json.Marshal(bulkComplianceRequest{VRNs: vrns})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+bulkCompliancePath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var outcomes []domain.Outcome
	if err := json.Unmarshal(body, &outcomes); err != nil {
		return nil, fmt.Errorf("decode bulk compliance: %w", err)
	}
	return outcomes, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.log.Error("compliance service call failed",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, &domain.ServiceError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
