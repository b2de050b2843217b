package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusConflict, "busy")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"busy"}`, rec.Body.String())
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Text string `json:"text"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"hi"}`))
	require.NoError(t, DecodeJSON(req, &dst))
	assert.Equal(t, "hi", dst.Text)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"txt":"hi"}`))
	assert.Error(t, DecodeJSON(req, &dst))
}

func TestSendSSEEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	SetupSSEHeaders(rec)
	require.NoError(t, SendSSEEvent(rec, rec, "notification", map[string]string{"title": "提醒"}))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "event: notification\ndata: {\"title\":\"提醒\"}\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestSendSSEComment(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, SendSSEComment(rec, rec, "ping"))
	assert.Equal(t, ": ping\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}
