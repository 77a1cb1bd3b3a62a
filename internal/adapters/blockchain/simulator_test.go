package blockchain

import (
	"context"
	"io"
	gohttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateTransaction_RequestShape(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":7},"value":{"err":null}}}`))
	}))
	defer srv.Close()

	ledger := NewRPCLedger(srv.URL, time.Second)
	raw, err := ledger.SimulateTransaction(context.Background(), "AQID")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"slot":7`)

	assert.Equal(t, "simulateTransaction", got["method"])
	params := got["params"].([]interface{})
	require.Len(t, params, 2)
	assert.Equal(t, "AQID", params[0])
	opts := params[1].(map[string]interface{})
	assert.Equal(t, "base64", opts["encoding"])
	assert.Equal(t, false, opts["sigVerify"])
	assert.Equal(t, true, opts["replaceRecentBlockhash"])
}

func TestSimulateTransaction_ServerError(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.WriteHeader(gohttp.StatusBadGateway)
	}))
	defer srv.Close()

	ledger := NewRPCLedger(srv.URL, time.Second)
	_, err := ledger.SimulateTransaction(context.Background(), "AQID")
	assert.Error(t, err)
}
