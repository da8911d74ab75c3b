package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
)

// Alarm is one row of the alarm API.
type Alarm struct {
	Name                Field `json:"name"`
	ComponentName       Field `json:"component_name"`
	Output              Field `json:"output"`
	Status              Field `json:"status"`
	TotalAboveThreshold Field `json:"total_above_threshold"`
	RankText            Field `json:"rank_text"`
}

// Field is an alarm column rendered as text. The alarm API is loosely typed,
// so numbers, booleans and nested values are kept in their JSON form and null
// becomes empty.
type Field string

func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Field(s)
	default:
		var compact bytes.Buffer
		if err := json.Compact(&compact, data); err != nil {
			return err
		}
		*f = Field(compact.String())
	}
	return nil
}

// AlarmClient calls the alarm API and caches its answers per
// (client_hash, end_time).
type AlarmClient struct {
	url        string
	httpClient *http.Client
	cache      *cache.Cache
}

// NewAlarmClient creates an alarm API client. A ttl of zero disables caching.
func NewAlarmClient(url string, timeout, ttl time.Duration) *AlarmClient {
	c := &AlarmClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
	if ttl > 0 {
		c.cache = cache.New(ttl, 2*ttl)
	}
	return c
}

func (c *AlarmClient) Alarms(ctx context.Context, clientHash, endTime string) ([]Alarm, error) {
	key := clientHash + "|" + endTime
	if c.cache != nil {
		if x, found := c.cache.Get(key); found {
			return x.([]Alarm), nil
		}
	}

	body, err := json.Marshal(map[string]string{"client_hash": clientHash, "end_time": endTime})
	if err != nil {
		return nil, fmt.Errorf("encoding alarm request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating alarm request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling alarm api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("alarm api returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var alarms []Alarm
	if err := json.NewDecoder(resp.Body).Decode(&alarms); err != nil {
		return nil, fmt.Errorf("decoding alarm response: %w", err)
	}

	if c.cache != nil {
		c.cache.Set(key, alarms, cache.DefaultExpiration)
	}
	return alarms, nil
}
