package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	hc := NewHealthController(pingFunc(func(context.Context) error { return nil }))
	rec := call(t, hc.Health, http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])

	hc = NewHealthController(pingFunc(func(context.Context) error { return errors.New("no primary") }))
	rec = call(t, hc.Health, http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", decodeBody(t, rec)["status"])
}
