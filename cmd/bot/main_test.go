package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/subscription-billing-bot/internal/config"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/events"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/storage/memory"
)

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	healthMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	healthMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestNewStoreMemoryBackend(t *testing.T) {
	cfg := &config.Config{Sheets: config.SheetsConfig{Backend: config.BackendMemory}}
	store := newStore(cfg, zap.NewNop())

	mem, ok := store.(*memory.MemorySheetStore)
	require.True(t, ok)
	rows, err := mem.Read(context.Background(), "Domain!A1:G15")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestNewPublisherWithoutSinks(t *testing.T) {
	pub, closeAll, err := newPublisher(context.Background(), &config.Config{}, zap.NewNop())
	require.NoError(t, err)
	defer closeAll()
	assert.Equal(t, events.Nop{}, pub)
}
