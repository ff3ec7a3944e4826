// Package pos 对接门店 POS 系统的只读库存接口
package pos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// InventorySnapshot 一次 POS 库存拉取的结果
type InventorySnapshot struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Client POS REST 客户端。未配置 APIKey 时所有查询返回未配置错误。
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Inventory 拉取实时库存。失败以结构化结果返回，不让上游请求失败。
func (c *Client) Inventory(ctx context.Context, locationID string) *InventorySnapshot {
	if c.apiKey == "" {
		return &InventorySnapshot{Success: false, Error: "POS not configured"}
	}

	endpoint := c.baseURL + "/inventory"
	if locationID != "" {
		endpoint += "?location_id=" + url.QueryEscape(locationID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &InventorySnapshot{Success: false, Error: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return &InventorySnapshot{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &InventorySnapshot{Success: false, Error: fmt.Sprintf("pos returned status %d", resp.StatusCode)}
	}

	var data any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return &InventorySnapshot{Success: false, Error: err.Error()}
	}
	return &InventorySnapshot{Success: true, Data: data}
}
