package server

import (
	"context"
	"errors"
	"net/http"
	"time"
)

type HTTP struct {
	addr   string
	engine http.Handler
	srv    *http.Server
}

func NewHTTP(addr string, h http.Handler) *HTTP {
	return &HTTP{
		addr:   addr,
		engine: h,
		srv:    &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second},
	}
}

// Start blocks until the server stops. A clean shutdown returns nil.
func (h *HTTP) Start() error {
	if err := h.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *HTTP) Stop(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}
