package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

type fakeReply struct {
	result string
	code   int
	msg    string
}

type fakeBackend struct {
	mu      sync.Mutex
	replies map[string]fakeReply
	params  map[string]json.RawMessage
}

func newFakeBackend(t *testing.T, replies map[string]fakeReply) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{replies: replies, params: map[string]json.RawMessage{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fb.mu.Lock()
		fb.params[req.Method] = req.Params
		reply, ok := fb.replies[req.Method]
		fb.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case !ok:
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"error":{"code":-32601,"message":"method not found"}}`))
		case reply.code != 0:
			errBody, _ := json.Marshal(map[string]any{"code": reply.code, "message": reply.msg})
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"error":` + string(errBody) + `}`))
		default:
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":` + reply.result + `}`))
		}
	}))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) paramsOf(method string) json.RawMessage {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.params[method]
}

func dial(t *testing.T, url string) *rpc.Client {
	t.Helper()
	c, err := Dial(context.Background(), url, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

var testEntryPoint = common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")

func TestGasPriceTiersKeepPrecision(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]fakeReply{
		MethodGasPrice: {result: `{
			"slow":{"maxFeePerGas":"0x3b9aca00","maxPriorityFeePerGas":"0x1"},
			"standard":{"maxFeePerGas":"0xffffffffffffffffffff","maxPriorityFeePerGas":"0x2"},
			"fast":{"maxFeePerGas":"0x77359400","maxPriorityFeePerGas":"0x3"}}`},
	})
	tiers, err := NewGasPriceClient(dial(t, srv.URL)).GetUserOperationGasPrice(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000), tiers.Slow.MaxFeePerGas.Uint64())

	out, err := json.Marshal(tiers.Standard)
	require.NoError(t, err)
	require.JSONEq(t, `{"maxFeePerGas":"1208925819614629174706175","maxPriorityFeePerGas":"2"}`, string(out))
}

func TestPaymasterSendsFourParams(t *testing.T) {
	fb, srv := newFakeBackend(t, map[string]fakeReply{
		MethodPaymasterStubData: {result: `{"paymasterAndData":"0xdeadbeef","isFinal":false}`},
		MethodPaymasterData:     {result: `{"paymasterAndData":"0xcafe"}`},
	})
	pm := NewPaymasterClient(dial(t, srv.URL))
	op := json.RawMessage(`{"sender":"0x0000000000000000000000000000000000000001","callData":"0x"}`)

	stub, err := pm.GetPaymasterStubData(context.Background(), op, testEntryPoint, 8453, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, []byte(stub.PaymasterAndData))

	var params []json.RawMessage
	require.NoError(t, json.Unmarshal(fb.paramsOf(MethodPaymasterStubData), &params))
	require.Len(t, params, 4)
	require.JSONEq(t, string(op), string(params[0]))
	require.Equal(t, `"0x2105"`, string(params[2]))
	require.Equal(t, `null`, string(params[3]))

	data, err := pm.GetPaymasterData(context.Background(), op, testEntryPoint, 8453, json.RawMessage(`{"sponsorshipPolicyId":"sp_1"}`))
	require.NoError(t, err)
	require.Equal(t, []byte{0xca, 0xfe}, []byte(data.PaymasterAndData))
	require.NoError(t, json.Unmarshal(fb.paramsOf(MethodPaymasterData), &params))
	require.JSONEq(t, `{"sponsorshipPolicyId":"sp_1"}`, string(params[3]))
}

func TestBundlerEstimateAndSend(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]fakeReply{
		MethodEstimateGas:       {result: `{"preVerificationGas":"0xc350","verificationGasLimit":"0x186a0","callGasLimit":"0x2710"}`},
		MethodSendUserOperation: {result: `"0x00000000000000000000000000000000000000000000000000000000000000aa"`},
	})
	b := NewBundlerClient(dial(t, srv.URL))
	op := json.RawMessage(`{"callData":"0x"}`)

	est, err := b.EstimateUserOperationGas(context.Background(), op, testEntryPoint)
	require.NoError(t, err)
	require.Equal(t, uint64(50000), est.PreVerificationGas.Uint64())
	require.Equal(t, uint64(100000), est.VerificationGasLimit.Uint64())
	require.Nil(t, est.PaymasterPostOpGasLimit)

	hash, err := b.SendUserOperation(context.Background(), op, testEntryPoint)
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0xaa"), hash)
}

func TestBundlerErrorPropagates(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]fakeReply{
		MethodSendUserOperation: {code: -32602, msg: "AA21 didn't pay prefund"},
	})
	_, err := NewBundlerClient(dial(t, srv.URL)).SendUserOperation(context.Background(), json.RawMessage(`{}`), testEntryPoint)
	require.Error(t, err)
	var rpcErr rpc.Error
	require.True(t, errors.As(err, &rpcErr))
	require.Equal(t, -32602, rpcErr.ErrorCode())
	require.Contains(t, rpcErr.Error(), "AA21")
}

func TestReceiptNotFoundIsNil(t *testing.T) {
	hash := common.HexToHash("0x01")
	for name, reply := range map[string]fakeReply{
		"null result":     {result: `null`},
		"not found error": {code: -32000, msg: "UserOperation not found"},
	} {
		t.Run(name, func(t *testing.T) {
			_, srv := newFakeBackend(t, map[string]fakeReply{MethodGetReceipt: reply})
			receipt, err := NewBundlerClient(dial(t, srv.URL)).GetUserOperationReceipt(context.Background(), hash)
			require.NoError(t, err)
			require.Nil(t, receipt)
		})
	}

	_, srv := newFakeBackend(t, map[string]fakeReply{MethodGetReceipt: {code: -32603, msg: "internal failure"}})
	_, err := NewBundlerClient(dial(t, srv.URL)).GetUserOperationReceipt(context.Background(), hash)
	require.Error(t, err)
}

func TestReceiptDecodes(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]fakeReply{MethodGetReceipt: {result: `{
		"userOpHash":"0x00000000000000000000000000000000000000000000000000000000000000aa",
		"entryPoint":"0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789",
		"sender":"0x0000000000000000000000000000000000000001",
		"nonce":"0x0","actualGasCost":"0x5af3107a4000","actualGasUsed":"0x186a0",
		"success":true,"logs":[],
		"receipt":{"transactionHash":"0x00000000000000000000000000000000000000000000000000000000000000bb",
			"blockHash":"0x00000000000000000000000000000000000000000000000000000000000000cc",
			"blockNumber":"0x10","from":"0x0000000000000000000000000000000000000002",
			"to":"0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789","gasUsed":"0x186a0","status":"0x1","logs":[]}}`}})
	receipt, err := NewBundlerClient(dial(t, srv.URL)).GetUserOperationReceipt(context.Background(), common.HexToHash("0xaa"))
	require.NoError(t, err)
	require.NotNil(t, receipt)
	require.True(t, receipt.Success)
	require.Equal(t, StatusSuccess, receipt.Receipt.Status)
	require.Equal(t, common.HexToHash("0xbb"), receipt.Receipt.TransactionHash)

	out, err := json.Marshal(receipt)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	require.Equal(t, "100000000000000", back["actualGasCost"])
	require.Equal(t, "success", back["receipt"].(map[string]any)["status"])
}

func TestReceiptKeepsFullBundlerShape(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]fakeReply{MethodGetReceipt: {result: `{
		"userOpHash":"0x00000000000000000000000000000000000000000000000000000000000000aa",
		"entryPoint":"0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789",
		"sender":"0x0000000000000000000000000000000000000001",
		"nonce":"0x00","actualGasCost":"0x05af3107a4000","actualGasUsed":"0x0186a0",
		"success":true,"logs":[],"l1Fee":"0x2a",
		"receipt":{"transactionHash":"0x00000000000000000000000000000000000000000000000000000000000000bb",
			"transactionIndex":"0x00","contractAddress":null,
			"blockHash":"0x00000000000000000000000000000000000000000000000000000000000000cc",
			"blockNumber":"0x010","from":"0x0000000000000000000000000000000000000002",
			"to":"0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789","cumulativeGasUsed":"0x0186a0",
			"gasUsed":"0x186a0","effectiveGasPrice":"0x01","logsBloom":"0x0001","type":"0x2",
			"status":"0x01","logs":[]}}`}})
	receipt, err := NewBundlerClient(dial(t, srv.URL)).GetUserOperationReceipt(context.Background(), common.HexToHash("0xaa"))
	require.NoError(t, err)
	require.NotNil(t, receipt)
	require.Zero(t, receipt.Nonce.Uint64())
	require.Equal(t, uint64(100000), receipt.Receipt.CumulativeGasUsed.Uint64())
	require.Equal(t, StatusSuccess, receipt.Receipt.Status)

	out, err := json.Marshal(receipt)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	require.Equal(t, "0", back["nonce"])
	require.Equal(t, "0x2a", back["l1Fee"])
	inner := back["receipt"].(map[string]any)
	require.Equal(t, "0", inner["transactionIndex"])
	require.Equal(t, "100000", inner["cumulativeGasUsed"])
	require.Equal(t, "16", inner["blockNumber"])
	require.Equal(t, "0x0001", inner["logsBloom"])
	require.Equal(t, "0x2", inner["type"])
	require.Contains(t, inner, "contractAddress")
	require.Nil(t, inner["contractAddress"])
}

func TestQuantityAcceptsLeadingZeros(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]fakeReply{
		MethodGasPrice: {result: `{
			"slow":{"maxFeePerGas":"0x01","maxPriorityFeePerGas":"0x00"},
			"standard":{"maxFeePerGas":"0x0a","maxPriorityFeePerGas":"2"},
			"fast":{"maxFeePerGas":3,"maxPriorityFeePerGas":"0x03"},
			"instant":{"maxFeePerGas":"0x04","maxPriorityFeePerGas":"0x04"}}`},
	})
	tiers, err := NewGasPriceClient(dial(t, srv.URL)).GetUserOperationGasPrice(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1), tiers.Slow.MaxFeePerGas.Uint64())
	require.Zero(t, tiers.Slow.MaxPriorityFeePerGas.Uint64())
	require.Equal(t, uint64(10), tiers.Standard.MaxFeePerGas.Uint64())
	require.Equal(t, uint64(3), tiers.Fast.MaxFeePerGas.Uint64())

	out, err := json.Marshal(tiers)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	require.Contains(t, back, "instant")

	for _, bad := range []string{`"0x"`, `"0xzz"`, `"-1"`} {
		var q Quantity
		require.Error(t, json.Unmarshal([]byte(bad), &q), bad)
	}
}

func TestRelayCopiesResponse(t *testing.T) {
	var seen []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":7,"result":["0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"]}`))
	}))
	t.Cleanup(srv.Close)

	body := []byte(`{"jsonrpc":"2.0","id":7,"method":"eth_supportedEntryPoints","params":[]}`)
	resp, err := NewRelay(srv.URL, time.Second).Forward(context.Background(), body)
	require.NoError(t, err)
	require.Equal(t, body, seen)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json; charset=utf-8", resp.ContentType)
	require.Equal(t, `{"jsonrpc":"2.0","id":7,"result":["0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"]}`, string(resp.Body))

	_, err = NewRelay("", time.Second).Forward(context.Background(), body)
	require.Error(t, err)
}
