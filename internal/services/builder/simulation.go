package builder

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"

	"github.com/hxuan190/dlmm-gateway/internal/domain"
)

const (
	// computeUnitBufferPercent is added on top of consumed units for the estimate.
	computeUnitBufferPercent = 20
	MaxComputeUnits          = 1_400_000
)

// ParseSimulationResult normalizes a raw simulateTransaction response. Missing or
// mistyped fields fall back to zero values; it never fails. The status is error
// iff the response carries a non-null err (or a JSON-RPC error).
func ParseSimulationResult(raw []byte) *domain.SimulationResult {
	res := &domain.SimulationResult{
		Status: domain.SimulationSuccess,
		Logs:   []string{},
	}

	root, err := sonic.Get(raw)
	if err != nil {
		return res
	}

	if rpcErr := child(&root, "error"); present(rpcErr) {
		msg := rawOf(rpcErr)
		if m := child(rpcErr, "message"); m != nil && m.TypeSafe() == ast.V_STRING {
			msg, _ = m.String()
		}
		res.Status = domain.SimulationError
		res.Error = &msg
		return res
	}

	result := child(&root, "result")
	res.Slot = uintOf(child(child(result, "context"), "slot"))

	value := child(result, "value")
	res.Fee = uintOf(child(value, "fee"))
	res.Units = uintOf(child(value, "unitsConsumed"))
	res.Logs = stringsOf(child(value, "logs"))
	res.PreTokenBalances = rawMessageOf(child(value, "preTokenBalances"))
	res.PostTokenBalances = rawMessageOf(child(value, "postTokenBalances"))

	if errNode := child(value, "err"); present(errNode) {
		msg := rawOf(errNode)
		res.Status = domain.SimulationError
		res.Error = &msg
	}

	classify(res)
	return res
}

func classify(res *domain.SimulationResult) {
	if res.Succeeded() {
		res.ComputeUnitsEstimate = min(res.Units+res.Units*computeUnitBufferPercent/100, MaxComputeUnits)
		return
	}
	text := strings.ToLower(*res.Error + "\n" + strings.Join(res.Logs, "\n"))
	res.InsufficientFunds = strings.Contains(text, "insufficient") || strings.Contains(text, "not enough")
	res.SlippageExceeded = strings.Contains(text, "slippage")
}

// child returns the key of an object node, or nil for anything else.
func child(n *ast.Node, key string) *ast.Node {
	if n == nil || n.TypeSafe() != ast.V_OBJECT {
		return nil
	}
	return n.Get(key)
}

// present is true for any node that exists and is not JSON null.
func present(n *ast.Node) bool {
	if n == nil {
		return false
	}
	switch n.TypeSafe() {
	case ast.V_NONE, ast.V_ERROR, ast.V_NULL:
		return false
	}
	return true
}

func uintOf(n *ast.Node) uint64 {
	if n == nil || n.TypeSafe() != ast.V_NUMBER {
		return 0
	}
	raw, err := n.Raw()
	if err != nil {
		return 0
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func stringsOf(n *ast.Node) []string {
	out := []string{}
	if n == nil || n.TypeSafe() != ast.V_ARRAY {
		return out
	}
	items, err := n.ArrayUseNode()
	if err != nil {
		return out
	}
	for i := range items {
		item := &items[i]
		if item.TypeSafe() != ast.V_STRING {
			continue
		}
		if s, err := item.String(); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func rawOf(n *ast.Node) string {
	s, err := n.Raw()
	if err != nil {
		return "unknown error"
	}
	return s
}

func rawMessageOf(n *ast.Node) json.RawMessage {
	if !present(n) {
		return nil
	}
	s, err := n.Raw()
	if err != nil {
		return nil
	}
	return json.RawMessage(s)
}
