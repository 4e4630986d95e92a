package deepgram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecognize(t *testing.T) {
	var gotAuth, gotModel string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotModel = r.URL.Query().Get("model")
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":"hello there","confidence":0.9}]}]}}`))
	}))
	defer srv.Close()

	d := New("secret", "nova-2", "")
	d.URL = srv.URL

	got, err := d.Recognize(context.Background(), make([]float32, 1600), 16000)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if got != "hello there" {
		t.Errorf("text = %q, want %q", got, "hello there")
	}
	if gotAuth != "Token secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotModel != "nova-2" {
		t.Errorf("model = %q, want nova-2", gotModel)
	}
	if len(gotBody) != 44+1600*2 || string(gotBody[:4]) != "RIFF" {
		t.Errorf("body is not the expected WAV (%d bytes)", len(gotBody))
	}
}

func TestRecognize_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	d := New("bad", "", "")
	d.URL = srv.URL

	_, err := d.Recognize(context.Background(), make([]float32, 160), 16000)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("err = %v, want Deepgram API error 401", err)
	}
}

func TestRecognize_NoAlternatives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":{"channels":[]}}`))
	}))
	defer srv.Close()

	d := New("k", "", "")
	d.URL = srv.URL

	got, err := d.Recognize(context.Background(), make([]float32, 160), 16000)
	if err != nil || got != "" {
		t.Errorf("got %q, %v; want empty text and no error", got, err)
	}
}
