package blockchain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	gohttp "net/http"

	"github.com/goccy/go-json"
)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type simulateConfig struct {
	Encoding               string `json:"encoding"`
	SigVerify              bool   `json:"sigVerify"`
	ReplaceRecentBlockhash bool   `json:"replaceRecentBlockhash"`
}

// SimulateTransaction posts a raw simulateTransaction call and returns the
// response body untouched. Signatures are not verified and the blockhash is
// replaced by the node, so placeholder values are accepted.
func (l *RPCLedger) SimulateTransaction(ctx context.Context, txBase64 string) ([]byte, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "simulateTransaction",
		Params: []interface{}{
			txBase64,
			simulateConfig{
				Encoding:               "base64",
				SigVerify:              false,
				ReplaceRecentBlockhash: true,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := gohttp.NewRequestWithContext(ctx, gohttp.MethodPost, l.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("simulateTransaction: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("simulateTransaction: read body: %w", err)
	}
	if resp.StatusCode >= gohttp.StatusInternalServerError {
		return nil, fmt.Errorf("simulateTransaction: rpc returned %s", resp.Status)
	}
	return raw, nil
}
