package mt5

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alagbefranc/goldtrading-signal/internal/types"
)

// facadeTransport reaches the terminal through its HTTP server. Every
// response is a JSON object; failures carry an "error" key instead of an
// HTTP error status.
type facadeTransport struct {
	baseURL string
	client  *http.Client
}

func newFacadeTransport(baseURL string) *facadeTransport {
	return &facadeTransport{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (f *facadeTransport) Name() string { return "facade" }

func (f *facadeTransport) call(ctx context.Context, method, endpoint string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, f.baseURL+endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("facade %s: %w: %v", endpoint, types.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("facade %s: status %d: %w", endpoint, resp.StatusCode, types.ErrUnavailable)
	}

	var envelope struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Error != "" {
			return fmt.Errorf("facade %s: %s", endpoint, envelope.Error)
		}
		if envelope.Success != nil && !*envelope.Success {
			return fmt.Errorf("facade %s: request unsuccessful", endpoint)
		}
	}
	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

// Healthy reports whether the facade answers its health endpoint.
func (f *facadeTransport) Healthy(ctx context.Context) bool {
	return f.call(ctx, http.MethodGet, "/health", nil, nil) == nil
}

func (f *facadeTransport) Initialize(ctx context.Context) error {
	return f.call(ctx, http.MethodPost, "/initialize", struct{}{}, nil)
}

func (f *facadeTransport) Login(ctx context.Context, account int64, password, server string) error {
	payload := map[string]any{
		"account":  account,
		"password": password,
		"server":   server,
	}
	return f.call(ctx, http.MethodPost, "/login", payload, nil)
}

func (f *facadeTransport) Shutdown(ctx context.Context) error {
	return f.call(ctx, http.MethodPost, "/shutdown", struct{}{}, nil)
}

func (f *facadeTransport) Symbols(ctx context.Context) ([]string, error) {
	var out struct {
		Symbols []string `json:"symbols"`
	}
	if err := f.call(ctx, http.MethodGet, "/get_symbols", nil, &out); err != nil {
		return nil, err
	}
	return out.Symbols, nil
}

func (f *facadeTransport) SymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error) {
	var out SymbolInfo
	payload := map[string]string{"symbol": symbol}
	if err := f.call(ctx, http.MethodPost, "/get_symbol_info", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *facadeTransport) SymbolInfoTick(ctx context.Context, symbol string) (*Tick, error) {
	var out Tick
	payload := map[string]string{"symbol": symbol}
	if err := f.call(ctx, http.MethodPost, "/get_symbol_info_tick", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *facadeTransport) SymbolSelect(ctx context.Context, symbol string, enable bool) error {
	payload := map[string]any{"symbol": symbol, "enable": enable}
	return f.call(ctx, http.MethodPost, "/symbol_select", payload, nil)
}

func (f *facadeTransport) Positions(ctx context.Context, symbol string) ([]Position, error) {
	payload := map[string]any{}
	if symbol != "" {
		payload["symbol"] = symbol
	}
	var out struct {
		Positions []Position `json:"positions"`
	}
	if err := f.call(ctx, http.MethodPost, "/positions_get", payload, &out); err != nil {
		return nil, err
	}
	return out.Positions, nil
}

func (f *facadeTransport) OrderSend(ctx context.Context, req *OrderRequest) (*OrderResult, error) {
	var out OrderResult
	if err := f.call(ctx, http.MethodPost, "/order_send", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
