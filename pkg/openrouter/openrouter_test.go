package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if c := NewClient(Config{APIKey: "  "}); c != nil {
		t.Fatal("expected nil client without api key")
	}
}

func TestListModels(t *testing.T) {
	t.Parallel()

	var gotAuth, gotTitle string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models") {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		gotTitle = r.Header.Get("X-Title")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","data":[{"id":"openai/gpt-4o-mini","object":"model","created":1,"owned_by":"openai"},{"id":"x-ai/grok-4.1-fast","object":"model","created":1,"owned_by":"x-ai"}]}`)
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{
		BaseURL:  server.URL + "/",
		APIKey:   "sk-test",
		SiteName: "Reembolsos",
	})
	if client == nil {
		t.Fatal("expected client")
	}

	ids, err := ListModels(context.Background(), client)
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "openai/gpt-4o-mini" {
		t.Fatalf("unexpected ids: %#v", ids)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotTitle != "Reembolsos" {
		t.Fatalf("x-title = %q", gotTitle)
	}
}

func TestListModelsNilClient(t *testing.T) {
	t.Parallel()

	if _, err := ListModels(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}
