package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/screensync/backend/subm"
	"github.com/screensync/backend/subm/submhttp"
)

type listResponse struct {
	Status  string                   `json:"status"`
	Data    []submhttp.SubmListEntry `json:"data"`
	Message string                   `json:"message"`
}

// httpSource reads the listing from a running server.
func httpSource(client *http.Client, serverUrl string) loadFunc {
	url := strings.TrimSuffix(serverUrl, "/") + "/submissions"
	return func(ctx context.Context) ([]subm.Subm, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to reach server: %w", err)
		}
		defer resp.Body.Close()

		var body listResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("failed to decode response (HTTP %d): %w", resp.StatusCode, err)
		}
		if body.Status != "success" {
			if body.Message == "" {
				body.Message = http.StatusText(resp.StatusCode)
			}
			return nil, errors.New(body.Message)
		}

		subms := make([]subm.Subm, len(body.Data))
		for i, e := range body.Data {
			subms[i] = subm.Subm{
				ID:             e.ID,
				ContractorName: e.ContractorName,
				CompanyName:    e.CompanyName,
				ScreenshotUrl:  e.ScreenshotUrl,
				SubmittedAt:    e.SubmittedAt,
			}
		}
		return subms, nil
	}
}
