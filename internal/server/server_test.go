package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/claimtriage/checkprioritizer/internal/model"
	"github.com/claimtriage/checkprioritizer/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubPipeline scores claims by text length so ranking is predictable
type stubPipeline struct {
	err      error
	received []model.Claim
}

func (p *stubPipeline) Prioritize(ctx context.Context, claims []model.Claim) (*model.PriorityReport, error) {
	p.received = claims
	if p.err != nil {
		return nil, p.err
	}

	entries := make([]model.RankedClaim, len(claims))
	for i, claim := range claims {
		entries[i] = model.RankedClaim{
			Claim: claim,
			Verdict: model.Verdict{
				ClaimID:         claim.ID,
				CheckWorthiness: float64(len(claim.Text)) / 100,
				Rationale:       "stub",
			},
		}
	}
	return &model.PriorityReport{Entries: entries, GeneratedAt: time.Now().UTC()}, nil
}

func postPrioritize(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/prioritize", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlePrioritize(t *testing.T) {
	pipeline := &stubPipeline{}
	router := NewServer(pipeline).Router()

	w := postPrioritize(t, router, `{"texts": ["vaccines cause autism", "the sky is blue"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp prioritizeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if len(resp.Claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(resp.Claims))
	}
	if resp.Claims[0].Text != "vaccines cause autism" {
		t.Errorf("unexpected first claim: %+v", resp.Claims[0])
	}
	if resp.Claims[0].Rationale != "stub" {
		t.Errorf("rationale not propagated: %+v", resp.Claims[0])
	}

	for _, claim := range pipeline.received {
		if claim.ID == "" {
			t.Error("pipeline should receive claims with assigned ids")
		}
	}
}

func TestHandlePrioritize_SkipsBlankTexts(t *testing.T) {
	pipeline := &stubPipeline{}
	router := NewServer(pipeline).Router()

	w := postPrioritize(t, router, `{"texts": ["  ", "real claim", ""]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(pipeline.received) != 1 || pipeline.received[0].Text != "real claim" {
		t.Errorf("expected only the non-blank claim, got %+v", pipeline.received)
	}
}

func TestHandlePrioritize_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "this is not json"},
		{"empty texts", `{"texts": []}`},
		{"all blank", `{"texts": ["", "   "]}`},
		{"missing field", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewServer(&stubPipeline{}).Router()
			w := postPrioritize(t, router, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestHandlePrioritize_StoreOutage(t *testing.T) {
	pipeline := &stubPipeline{err: fmt.Errorf("retrieval failed for all 2 claims: %w", store.ErrUnavailable)}
	router := NewServer(pipeline).Router()

	w := postPrioritize(t, router, `{"texts": ["one", "two"]}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 on corpus outage, got %d", w.Code)
	}
}

func TestHandlePrioritize_InternalError(t *testing.T) {
	pipeline := &stubPipeline{err: context.DeadlineExceeded}
	router := NewServer(pipeline).Router()

	w := postPrioritize(t, router, `{"texts": ["one"]}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	router := NewServer(&stubPipeline{}).Router()

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp["status"] != "online" {
		t.Errorf("expected status online, got %q", resp["status"])
	}
}
