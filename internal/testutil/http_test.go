package testutil

import (
	"net/http"
	"testing"
)

func TestNewJSONRequestRoundTrip(t *testing.T) {
	req := NewJSONRequest(t, http.MethodPost, "/calculator/evaluate", map[string][]string{
		"keys": {"1", "+", "2"},
	})

	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", ct)
	}

	var got struct {
		Keys []string `json:"keys"`
	}
	DecodeJSONBody(t, req.Body, &got)
	if len(got.Keys) != 3 || got.Keys[1] != "+" {
		t.Fatalf("unexpected keys %#v", got.Keys)
	}
}

func TestExecuteRequestRecordsResponse(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	rr := ExecuteRequest(NewJSONRequest(t, http.MethodGet, "/", nil), h)
	CheckResponseCode(t, http.StatusAccepted, rr.Code)
}
