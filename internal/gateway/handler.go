// Package gateway is the JSON-RPC front door for smart-account clients. It
// routes each request through a static method table to the bundler,
// paymaster or gas-price backend, and refuses paymaster requests for
// operations the sponsorship policy does not accept.
package gateway

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/AlexanderTar/art-collection/internal/jsonrpc"
	"github.com/AlexanderTar/art-collection/internal/policy"
	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	variant Variant
	methods map[string]method
	relay   Relayer
	policy  Sponsorship
	logger  *log.Logger
}

func NewHandler(variant Variant, deps Deps, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(os.Stdout, "[gateway] ", log.LstdFlags|log.Lmicroseconds)
	}
	h := &Handler{variant: variant, policy: deps.Policy, logger: logger}
	h.methods = h.table(deps)
	if variant == VariantBundler {
		h.relay = deps.Relay
	}
	return h
}

// HandleJSONRPC answers every request with HTTP 200 and a JSON-RPC envelope,
// except relayed requests which carry the backend's own status and body.
func (h *Handler) HandleJSONRPC(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		h.reply(c, "", "error", jsonrpc.Err(jsonrpc.Request{}, jsonrpc.CodeParseError, "failed to read request body"))
		return
	}
	var req jsonrpc.Request
	if err := json.Unmarshal(body, &req); err != nil {
		h.reply(c, "", "error", jsonrpc.Err(jsonrpc.Request{}, jsonrpc.CodeParseError, "invalid json"))
		return
	}
	if req.Method == "" {
		h.reply(c, "", "error", jsonrpc.Err(req, jsonrpc.CodeInvalidRequest, "missing method"))
		return
	}

	m, ok := h.methods[req.Method]
	if !ok {
		h.passthrough(c, req, body)
		return
	}
	params, err := jsonrpc.Positional(req.Params)
	if err != nil {
		h.reply(c, req.Method, "error", jsonrpc.ErrWith(req, jsonrpc.FromError(err)))
		return
	}
	if m.sponsored {
		if len(params) < 3 {
			h.reply(c, req.Method, "error", jsonrpc.Err(req, jsonrpc.CodeInvalidParams, "want [userOperation, entryPoint, chainId, context?]"))
			return
		}
		if !h.sponsorable(params) {
			h.reply(c, req.Method, "denied", jsonrpc.Err(req, jsonrpc.CodeNotSponsorable, jsonrpc.MessageNotSponsorable))
			return
		}
	}

	result, err := m.handle(c.Request.Context(), params)
	if err != nil {
		h.logger.Printf("%s %s failed: %v", h.variant, req.Method, err)
		h.reply(c, req.Method, "error", jsonrpc.ErrWith(req, jsonrpc.FromError(err)))
		return
	}
	h.reply(c, req.Method, "ok", jsonrpc.OK(req, result))
}

// sponsorable parses the policy inputs out of params. Anything unparsable
// is a denial.
func (h *Handler) sponsorable(params []json.RawMessage) bool {
	if h.policy == nil {
		return false
	}
	op, err := policy.ParseOperation(params[0])
	if err != nil {
		h.logger.Printf("deny: %v", err)
		return false
	}
	var entryPoint string
	if err := json.Unmarshal(params[1], &entryPoint); err != nil {
		h.logger.Printf("deny: entrypoint is not a string")
		return false
	}
	chainID, err := jsonrpc.ChainID(params[2])
	if err != nil {
		h.logger.Printf("deny: %v", err)
		return false
	}
	return h.policy.WillSponsor(chainID, entryPoint, op)
}

func (h *Handler) passthrough(c *gin.Context, req jsonrpc.Request, body []byte) {
	if h.relay == nil {
		h.reply(c, req.Method, "error", jsonrpc.Err(req, jsonrpc.CodeMethodNotFound, "method not found"))
		return
	}
	resp, err := h.relay.Forward(c.Request.Context(), body)
	if err != nil {
		h.logger.Printf("relay %s failed: %v", req.Method, err)
		h.reply(c, req.Method, "error", jsonrpc.ErrWith(req, jsonrpc.FromError(err)))
		return
	}
	requestCounter.WithLabelValues(string(h.variant), "passthrough", "relayed").Inc()
	c.Data(resp.StatusCode, resp.ContentType, resp.Body)
}

func (h *Handler) reply(c *gin.Context, method, outcome string, resp jsonrpc.Response) {
	label := method
	if _, known := h.methods[method]; !known {
		label = "other"
	}
	requestCounter.WithLabelValues(string(h.variant), label, outcome).Inc()
	c.JSON(http.StatusOK, resp)
}
