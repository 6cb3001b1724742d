package media

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:           baseURL,
		APIKey:            "test-key",
		ImagePollInterval: 5 * time.Millisecond,
		ImagePollAttempts: 5,
	}
}

func TestGenerateImageDirectResult(t *testing.T) {
	var gotBody submitRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/generations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"output": []string{"https://x/img.png"}})
	}))
	defer server.Close()

	g := NewGateway(testConfig(server.URL))
	res := g.GenerateImage(context.Background(), "sunset", nil)
	if !res.Success {
		t.Fatalf("expected success, got %s", res.Error)
	}
	if res.URL != "https://x/img.png" {
		t.Errorf("URL = %q", res.URL)
	}
	if !strings.HasPrefix(gotBody.Prompt, "sunset") {
		t.Errorf("prompt not forwarded: %q", gotBody.Prompt)
	}
	if !strings.Contains(gotBody.Prompt, "high quality") {
		t.Errorf("prompt not enhanced: %q", gotBody.Prompt)
	}
	if gotBody.Model != "flux-dev" {
		t.Errorf("expected text-to-image model, got %s", gotBody.Model)
	}
}

func TestGenerateImageEditModelWithRefs(t *testing.T) {
	var gotBody submitRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"output": []string{"https://x/edited.png"}})
	}))
	defer server.Close()

	g := NewGateway(testConfig(server.URL))
	res := g.GenerateImage(context.Background(), "add a hat", []string{"https://x/ref.png"})
	if !res.Success {
		t.Fatalf("expected success, got %s", res.Error)
	}
	if gotBody.Model != "flux-kontext" {
		t.Errorf("expected edit model, got %s", gotBody.Model)
	}
	if len(gotBody.ImageURLs) != 1 || gotBody.ImageURLs[0] != "https://x/ref.png" {
		t.Errorf("references not forwarded: %v", gotBody.ImageURLs)
	}
	if !strings.Contains(gotBody.Prompt, "reference image") {
		t.Errorf("reference instruction missing from prompt: %q", gotBody.Prompt)
	}
}

func TestGenerateImageAsyncResolves(t *testing.T) {
	var checks atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			json.NewEncoder(w).Encode(map[string]any{"taskId": "img-1"})
		case strings.HasPrefix(r.URL.Path, "/v1/images/tasks/img-1"):
			if checks.Add(1) < 3 {
				json.NewEncoder(w).Encode(map[string]any{"successFlag": 0, "progress": "0.4"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"successFlag": 1,
				"progress":    "1.0",
				"response":    map[string]any{"resultUrls": []string{"https://x/slow.png"}},
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	g := NewGateway(testConfig(server.URL))
	res := g.GenerateImage(context.Background(), "sunset", nil)
	if !res.Success {
		t.Fatalf("expected success, got %s", res.Error)
	}
	if res.URL != "https://x/slow.png" {
		t.Errorf("URL = %q", res.URL)
	}
}

func TestGenerateImagePollBudgetExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]any{"taskId": "img-stuck"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"successFlag": 0, "progress": "0.1"})
	}))
	defer server.Close()

	g := NewGateway(testConfig(server.URL))
	res := g.GenerateImage(context.Background(), "sunset", nil)
	if res.Success {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(res.Error, "timed out") || !strings.Contains(res.Error, "img-stuck") {
		t.Errorf("timeout error should name the bound and task id: %q", res.Error)
	}
}

func TestGenerateImageMissingKey(t *testing.T) {
	var called atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.APIKey = ""
	g := NewGateway(cfg)

	res := g.GenerateImage(context.Background(), "sunset", nil)
	if res.Success {
		t.Fatal("expected configuration failure")
	}
	if !strings.Contains(res.Error, "not configured") {
		t.Errorf("unexpected error: %q", res.Error)
	}
	if called.Load() {
		t.Error("no network call may happen without a credential")
	}
}

func TestGenerateImageProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	g := NewGateway(testConfig(server.URL))
	res := g.GenerateImage(context.Background(), "sunset", nil)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != "API Error: 502" {
		t.Errorf("error = %q, want API Error: 502", res.Error)
	}
}

func TestGenerateVideoReturnsTaskID(t *testing.T) {
	var gotBody submitRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/videos/generations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"taskId": "vid-42"})
	}))
	defer server.Close()

	g := NewGateway(testConfig(server.URL))
	res := g.GenerateVideo(context.Background(), "waves on a beach", "https://x/frame.png")
	if !res.Success {
		t.Fatalf("expected success, got %s", res.Error)
	}
	if res.TaskID != "vid-42" {
		t.Errorf("TaskID = %q", res.TaskID)
	}
	if res.URL != "" {
		t.Error("video submission must not resolve a URL")
	}
	if gotBody.ImageURL != "https://x/frame.png" {
		t.Errorf("reference image not forwarded: %q", gotBody.ImageURL)
	}
	if !strings.Contains(gotBody.Prompt, "cinematic") {
		t.Errorf("prompt not enhanced: %q", gotBody.Prompt)
	}
}

func TestEnhancePromptDeterministic(t *testing.T) {
	a := EnhanceImagePrompt("a cat", false)
	b := EnhanceImagePrompt("a cat", false)
	if a != b {
		t.Error("enhancement must be deterministic")
	}
	withRef := EnhanceImagePrompt("a cat", true)
	if a == withRef {
		t.Error("reference enhancement must differ from the plain suffix")
	}
	if !strings.Contains(EnhanceVideoPrompt("a cat", true), "reference image") {
		t.Error("video reference enhancement missing instruction")
	}
}
