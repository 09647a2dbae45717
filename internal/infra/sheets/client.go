package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domain "github.com/yanqian/phenology/internal/domain/sheets"
	apperrors "github.com/yanqian/phenology/pkg/errors"
)

const defaultBaseURL = "https://sheets.googleapis.com/v4"

// Client reads spreadsheet grid data through the Google Sheets API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds an API client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchSheet loads one tab with its grid data. The first grid row is the header.
func (c *Client) FetchSheet(ctx context.Context, spreadsheetID string, sheetNumber int) (domain.Sheet, error) {
	params := url.Values{}
	params.Set("includeGridData", "true")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	endpoint := fmt.Sprintf("%s/spreadsheets/%s?%s", c.baseURL, url.PathEscape(spreadsheetID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Sheet{}, fmt.Errorf("build sheets request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Sheet{}, fmt.Errorf("sheets request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Sheet{}, apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf("spreadsheet %s not found", spreadsheetID), nil)
	}
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return domain.Sheet{}, fmt.Errorf("sheets request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var raw spreadsheet
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.Sheet{}, fmt.Errorf("decode sheets response: %w", err)
	}
	if sheetNumber < 0 || sheetNumber >= len(raw.Sheets) {
		return domain.Sheet{}, apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf("spreadsheet %s has no sheet %d", spreadsheetID, sheetNumber), nil)
	}
	return toSheet(raw.Sheets[sheetNumber]), nil
}

type spreadsheet struct {
	SpreadsheetID string     `json:"spreadsheetId"`
	Sheets        []sheetTab `json:"sheets"`
}

type sheetTab struct {
	Properties domain.Properties `json:"properties"`
	Data       []gridData        `json:"data"`
}

type gridData struct {
	RowData []rowData `json:"rowData"`
}

type rowData struct {
	Values []cellData `json:"values"`
}

type cellData struct {
	FormattedValue string `json:"formattedValue"`
}

func toSheet(tab sheetTab) domain.Sheet {
	sheet := domain.Sheet{Properties: tab.Properties}
	if len(tab.Data) == 0 || len(tab.Data[0].RowData) == 0 {
		return sheet
	}
	rows := tab.Data[0].RowData
	sheet.Header = cellValues(rows[0])
	sheet.Rows = make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		sheet.Rows = append(sheet.Rows, cellValues(row))
	}
	return sheet
}

func cellValues(row rowData) []string {
	out := make([]string, len(row.Values))
	for i, cell := range row.Values {
		out[i] = cell.FormattedValue
	}
	return out
}

var _ domain.Client = (*Client)(nil)
