package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSONSetsContentTypeHeader(t *testing.T) {
	recorder := httptest.NewRecorder()

	WriteJSON(recorder, http.StatusOK, map[string]string{"key": "value"})

	contentType := recorder.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}
}

func TestWriteJSONSetsStatusCode(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"OK", http.StatusOK},
		{"Created", http.StatusCreated},
		{"BadGateway", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()

			WriteJSON(recorder, tt.statusCode, map[string]string{"key": "value"})

			if recorder.Code != tt.statusCode {
				t.Errorf("expected status %d, got %d", tt.statusCode, recorder.Code)
			}
		})
	}
}

func TestWriteErrorWrapsMessage(t *testing.T) {
	recorder := httptest.NewRecorder()

	WriteError(recorder, http.StatusServiceUnavailable, "menu unavailable")

	var body ErrorBody
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error != "menu unavailable" {
		t.Errorf("expected error message %q, got %q", "menu unavailable", body.Error)
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Path string `json:"path"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"path":"a.mp4"}`))
	if err := DecodeJSON(req, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Path != "a.mp4" {
		t.Errorf("expected path a.mp4, got %q", v.Path)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"path":"a.mp4","extra":1}`))
	if err := DecodeJSON(req, &v); err == nil {
		t.Error("expected unknown field to be rejected")
	}
}
