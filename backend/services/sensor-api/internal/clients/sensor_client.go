package clients

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync"
	"time"

	"sensorhub/backend/services/sensor-api/internal/models"
	"sensorhub/backend/services/sensor-api/internal/service"
)

// SensorClient talks to the sensor API and remembers the bearer token after Login.
type SensorClient struct {
	base *BaseClient

	mu    sync.RWMutex
	token string
}

// NewSensorClient returns client.
func NewSensorClient(baseURL string, httpClient HTTPDoer) *SensorClient {
	return &SensorClient{base: NewBaseClient(baseURL, httpClient)}
}

// SetToken replaces the bearer token used for protected endpoints.
func (c *SensorClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *SensorClient) authHeaders() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.token}
}

// Register creates an account.
func (c *SensorClient) Register(ctx context.Context, username, password string) error {
	payload := map[string]string{"username": username, "password": password}
	return c.base.DoJSON(ctx, http.MethodPost, "/auth/register", payload, nil, nil)
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *SensorClient) Login(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	payload := map[string]string{"username": username, "password": password}
	if err := c.base.DoJSON(ctx, http.MethodPost, "/auth/login", payload, &resp, nil); err != nil {
		return "", err
	}
	c.SetToken(resp.AccessToken)
	return resp.AccessToken, nil
}

// PostReading sends one reading to POST /sensors/data.
func (c *SensorClient) PostReading(ctx context.Context, reading models.Reading) (*service.InsertResult, error) {
	payload := map[string]interface{}{
		"equipmentId": reading.EquipmentID,
		"timestamp":   reading.Timestamp.UTC().Format(time.RFC3339Nano),
		"value":       reading.Value,
	}
	var result service.InsertResult
	if err := c.base.DoJSON(ctx, http.MethodPost, "/sensors/data", payload, &result, c.authHeaders()); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadCSV posts content as the multipart "file" field.
func (c *SensorClient) UploadCSV(ctx context.Context, filename string, content io.Reader) (*service.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	headers := map[string]string{"Content-Type": mw.FormDataContentType()}
	for k, v := range c.authHeaders() {
		headers[k] = v
	}
	status, body, err := c.base.Do(ctx, http.MethodPost, "/sensors/upload", &buf, headers)
	if err != nil {
		return nil, err
	}
	var result service.UploadResult
	if err := decodeResponse(status, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Average fetches the mean of one station.
func (c *SensorClient) Average(ctx context.Context, equipmentID, period string) (*service.AverageResult, error) {
	q := url.Values{"equipmentId": {equipmentID}}
	if period != "" {
		q.Set("period", period)
	}
	var result service.AverageResult
	if err := c.base.DoJSON(ctx, http.MethodGet, "/sensors/average?"+q.Encode(), nil, &result, c.authHeaders()); err != nil {
		return nil, err
	}
	return &result, nil
}

// Averages fetches the mean of every station.
func (c *SensorClient) Averages(ctx context.Context, period string) ([]models.StationAverage, error) {
	path := "/sensors/averages"
	if period != "" {
		path += "?" + url.Values{"period": {period}}.Encode()
	}
	var result []models.StationAverage
	if err := c.base.DoJSON(ctx, http.MethodGet, path, nil, &result, c.authHeaders()); err != nil {
		return nil, err
	}
	return result, nil
}
