package narrative

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nutrino/carbonfootprint/backend/analytics-service/internal/models"
)

func testSnapshot() *models.OrgSnapshot {
	return &models.OrgSnapshot{
		OrgID:        1,
		Organization: models.Organization{ID: 1, Name: "Acme"},
		Summary: models.SnapshotSummary{
			KPIs: models.KPIs{TotalCO2eKg: 175, Scope1Kg: 125, Scope2Kg: 50},
		},
	}
}

func TestGenerate(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotReq); err != nil {
			t.Errorf("request body not valid JSON: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "  Reduce Scope 1 fuel use.\n"}},
			},
		})
	}))
	defer srv.Close()

	gen := NewOpenAI(Config{APIKey: "sk-test", Endpoint: srv.URL})

	text, err := gen.Generate(context.Background(), testSnapshot())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Reduce Scope 1 fuel use." {
		t.Errorf("text = %q, want trimmed content", text)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotReq.Model != "gpt-4o" {
		t.Errorf("model = %q, want default gpt-4o", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v, want system + user", gotReq.Messages)
	}
	if !strings.Contains(gotReq.Messages[1].Content, `"name":"Acme"`) {
		t.Errorf("user message does not embed the snapshot: %q", gotReq.Messages[1].Content)
	}
}

func TestGenerateBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "bad key", "type": "invalid_request_error"},
		})
	}))
	defer srv.Close()

	gen := NewOpenAI(Config{APIKey: "sk-bad", Endpoint: srv.URL})

	if _, err := gen.Generate(context.Background(), testSnapshot()); err == nil {
		t.Fatal("expected error from backend")
	}
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer srv.Close()

	gen := NewOpenAI(Config{APIKey: "sk-test", Endpoint: srv.URL})

	if _, err := gen.Generate(context.Background(), testSnapshot()); err == nil {
		t.Fatal("expected error when no choices returned")
	}
}
