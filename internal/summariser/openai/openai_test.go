package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/user/podcast-insight/internal/summariser"
)

func TestSummarise(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"  A short summary. "}}]}`))
	}))
	defer srv.Close()

	s := New("key", srv.URL+"/v1", "test-model")
	text, err := s.Summarise(context.Background(), summariser.Request{Text: "long excerpt", MaxLength: 60, MinLength: 30})
	if err != nil {
		t.Fatalf("Summarise: %v", err)
	}
	if text != "A short summary." {
		t.Errorf("text = %q", text)
	}
	if got["model"] != "test-model" {
		t.Errorf("model = %v", got["model"])
	}
	if got["max_tokens"] != float64(136) {
		t.Errorf("max_tokens = %v, want 136 for a 60 word summary", got["max_tokens"])
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 1 || !strings.Contains(msgs[0].(map[string]any)["content"].(string), "between 30 and 60 words") {
		t.Errorf("prompt does not state the bounds: %v", msgs)
	}
}

func TestSummarise_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := New("key", srv.URL+"/v1", "m").Summarise(context.Background(), summariser.Request{Text: "x", MaxLength: 10})
	if err == nil {
		t.Fatal("expected an error for an empty choice list")
	}
}
