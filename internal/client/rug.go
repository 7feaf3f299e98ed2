package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// RugCheckResponse is the subset of the rugcheck.xyz token report the
// filter consults.
type RugCheckResponse struct {
	CreatorBalance uint64 `json:"creatorBalance"`
	Token          struct {
		MintAuthority   *string `json:"mintAuthority"`
		Supply          int64   `json:"supply"`
		Decimals        int     `json:"decimals"`
		IsInitialized   bool    `json:"isInitialized"`
		FreezeAuthority *string `json:"freezeAuthority"`
	} `json:"token"`
	Risks []struct {
		Name        string `json:"name"`
		Value       string `json:"value"`
		Description string `json:"description"`
		Score       int    `json:"score"`
		Level       string `json:"level"`
	} `json:"risks"`
	Score                int     `json:"score"`
	ScoreNormalised      int     `json:"score_normalised"`
	TotalMarketLiquidity float64 `json:"totalMarketLiquidity"`
	Rugged               bool    `json:"rugged"`
	Price                float64 `json:"price"`
}

// HasDangerRisk reports whether any reported risk is flagged at
// danger level.
func (r *RugCheckResponse) HasDangerRisk() bool {
	for _, risk := range r.Risks {
		if risk.Level == "danger" {
			return true
		}
	}
	return false
}

var rugHTTPClient = &http.Client{Timeout: 5 * time.Second}

// GetRugCheck fetches the rugcheck.xyz report for a mint.
func GetRugCheck(ctx context.Context, mint string) (*RugCheckResponse, error) {
	url := fmt.Sprintf("https://api.rugcheck.xyz/v1/tokens/%s/report", mint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")

	resp, err := rugHTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("rugcheck API returned %s", resp.Status)
	}

	var response RugCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}
	return &response, nil
}
