package qstash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPublish(t *testing.T) {
	t.Parallel()

	var (
		gotPath string
		gotAuth string
		gotBody map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, `{"messageId":"msg_123"}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		URL:         server.URL,
		Token:       "qs-token",
		Destination: "https://hooks.example.com/reembolsos",
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	id, err := client.Publish(context.Background(), map[string]string{"request_id": "MED_00001", "status": "Aprobado"})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if id != "msg_123" {
		t.Fatalf("message id = %q", id)
	}
	if gotPath != "/v2/publish/https://hooks.example.com/reembolsos" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer qs-token" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotBody["request_id"] != "MED_00001" {
		t.Fatalf("unexpected body: %v", gotBody)
	}
}

func TestPublishHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid token"}`)
	}))
	t.Cleanup(server.Close)

	client := MustNew(Config{URL: server.URL, Token: "bad", Destination: "https://hooks.example.com/x"})
	if _, err := client.Publish(context.Background(), struct{}{}); err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	cases := map[string]Config{
		"missing url":         {Token: "t", Destination: "https://x.example.com"},
		"missing token":       {URL: "https://qstash.upstash.io", Destination: "https://x.example.com"},
		"missing destination": {URL: "https://qstash.upstash.io", Token: "t"},
	}
	for name, cfg := range cases {
		name, cfg := name, cfg
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewClient(cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
