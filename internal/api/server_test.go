package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/nvbach/llm-bridge/internal/config"
	"github.com/nvbach/llm-bridge/internal/translator"
	"github.com/nvbach/llm-bridge/internal/upstream"
)

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	tr := translator.New(translator.Options{Aliases: cfg.AliasTable()})
	return NewServer(cfg, tr, upstream.NewClient())
}

func anthropicUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("upstream path = %s, want /v1/messages", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "sk-ant" {
			t.Errorf("x-api-key = %q, want sk-ant", r.Header.Get("x-api-key"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","model":"claude-3-5-sonnet-latest",` +
			`"content":[{"type":"text","text":"hello"}],"stop_reason":"end_turn",` +
			`"usage":{"input_tokens":3,"output_tokens":2}}`))
	}))
}

func providerFor(url string) config.Provider {
	return config.Provider{
		Type:    "anthropic",
		BaseURL: url,
		APIKey:  "sk-ant",
		Models: []config.ProviderModel{
			{Name: "claude-3-5-sonnet-latest", Alias: "gpt-4"},
		},
	}
}

func TestChatCompletionsTranslatesRoundTrip(t *testing.T) {
	up := anthropicUpstream(t)
	defer up.Close()

	s := newTestServer(t, &config.Config{Providers: []config.Provider{providerFor(up.URL)}})

	body := `{"model":"gpt-4","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	out := rec.Body.String()
	if got := gjson.Get(out, "choices.0.message.content").String(); got != "hello" {
		t.Errorf("content = %q, want hello", got)
	}
	if got := gjson.Get(out, "choices.0.finish_reason").String(); got != "end_turn" {
		t.Errorf("finish_reason = %q, want end_turn carried through verbatim", got)
	}
	if got := gjson.Get(out, "usage.total_tokens").Int(); got != 5 {
		t.Errorf("total_tokens = %d, want 5", got)
	}
}

func TestChatCompletionsStreaming(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: content_block_delta\n" +
			"data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"hi\"}}\n\n" +
			"event: message_stop\n" +
			"data: {\"type\":\"message_stop\"}\n\n"))
	}))
	defer up.Close()

	s := newTestServer(t, &config.Config{Providers: []config.Provider{providerFor(up.URL)}})

	body := `{"model":"gpt-4","stream":true,"messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content-type = %q, want text/event-stream", ct)
	}
	out := rec.Body.String()
	var sawContent, sawFinish bool
	for _, line := range strings.Split(out, "\n") {
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		if gjson.Get(payload, "choices.0.delta.content").String() == "hi" {
			sawContent = true
		}
		if gjson.Get(payload, "choices.0.finish_reason").String() == "stop" {
			sawFinish = true
		}
	}
	if !sawContent || !sawFinish {
		t.Errorf("stream missing content/finish events:\n%s", out)
	}
}

func TestUnknownModelReturns404(t *testing.T) {
	s := newTestServer(t, &config.Config{})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions",
		strings.NewReader(`{"model":"nope","messages":[]}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := gjson.Get(rec.Body.String(), "error.type").String(); got != "not_found_error" {
		t.Errorf("error.type = %q", got)
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, &config.Config{AuthKeys: []string{"sk-good"}})

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no key: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set("Authorization", "Bearer sk-good")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer key: status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set("x-api-key", "sk-good")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("x-api-key: status = %d, want 200", rec.Code)
	}
}

func TestModelsListing(t *testing.T) {
	s := newTestServer(t, &config.Config{Providers: []config.Provider{providerFor("http://unused")}})
	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Code)
	}
	out := rec.Body.String()
	if gjson.Get(out, "data.0.id").String() != "gpt-4" {
		t.Errorf("model id = %q, want alias gpt-4", gjson.Get(out, "data.0.id").String())
	}
	if gjson.Get(out, "data.0.owned_by").String() != "anthropic" {
		t.Errorf("owned_by = %q", gjson.Get(out, "data.0.owned_by").String())
	}
}

func TestUpstreamErrorPassthrough(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer up.Close()

	s := newTestServer(t, &config.Config{Providers: []config.Provider{providerFor(up.URL)}})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions",
		strings.NewReader(`{"model":"gpt-4","messages":[{"role":"user","content":"hi"}]}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := gjson.Get(rec.Body.String(), "error.type").String(); got != "rate_limit_error" {
		t.Errorf("error.type = %q, want rate_limit_error", got)
	}
}
