package server

import (
	"net/http"
	"strings"

	"github.com/AlexanderTar/art-collection/internal/config"
	"github.com/gin-gonic/gin"
)

type addressHandler struct {
	cfg config.SponsorshipConfig
}

type AddressLookupResponse struct {
	Contract string `json:"contract"`
	Address  string `json:"address"`
	ChainID  uint64 `json:"chainId"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func newAddressHandler(cfg config.SponsorshipConfig) *addressHandler {
	return &addressHandler{cfg: cfg}
}

// LookupAddress godoc
// @Summary Lookup configured contract address
// @Description Returns one of the addresses the gateway sponsors against, so clients build operations for the same entrypoint and allow-list.
// @Tags Addresses
// @Produce json
// @Param contract query string true "Contract identifier" Enums(entrypoint, entry_point, fee_sweep, magic_spend, sponsored_contract, art_certificate, nft)
// @Success 200 {object} AddressLookupResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/addresses [get]
func (h *addressHandler) LookupAddress(c *gin.Context) {
	contract := strings.ToLower(strings.TrimSpace(c.Query("contract")))
	var name, addr string
	switch contract {
	case "entrypoint", "entry_point":
		name, addr = "entrypoint", h.cfg.EntryPoint
	case "fee_sweep", "magic_spend":
		name, addr = "fee_sweep", h.cfg.FeeSweepAddress
	case "sponsored_contract", "art_certificate", "nft":
		name, addr = "sponsored_contract", h.cfg.SponsoredContract
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unsupported contract query"})
		return
	}
	if addr == "" {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: name + " address not configured"})
		return
	}
	c.JSON(http.StatusOK, AddressLookupResponse{Contract: name, Address: addr, ChainID: h.cfg.ChainID})
}
