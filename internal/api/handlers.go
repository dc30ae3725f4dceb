package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/nvbach/llm-bridge/internal/logging"
	"github.com/nvbach/llm-bridge/internal/protocol"
	"github.com/nvbach/llm-bridge/internal/streamutil"
	"github.com/nvbach/llm-bridge/internal/translator"
	"github.com/nvbach/llm-bridge/internal/upstream"
)

// handleChatCompletions serves OpenAI-shaped clients.
func (s *Server) handleChatCompletions(c *gin.Context) {
	s.proxy(c, protocol.OpenAI)
}

// handleMessages serves Anthropic-shaped clients.
func (s *Server) handleMessages(c *gin.Context) {
	s.proxy(c, protocol.Anthropic)
}

// proxy is the shared request path: route by model, translate the request
// into the provider's protocol, forward it, and translate the response (or
// stream) back into the caller's protocol.
func (s *Server) proxy(c *gin.Context, source protocol.Protocol) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid_request_error", "failed to read request body")
		return
	}

	model := gjson.GetBytes(body, "model").String()
	cfg := s.cfg.Load()
	prov, ok := cfg.ProviderForModel(model)
	if !ok {
		apiError(c, http.StatusNotFound, "not_found_error", "no provider configured for model "+model)
		return
	}
	target, err := prov.Protocol()
	if err != nil {
		apiError(c, http.StatusInternalServerError, "api_error", err.Error())
		return
	}
	stream := gjson.GetBytes(body, "stream").Bool()

	out, err := s.tr.TranslateRequest(body, source, target, translator.RequestOptions{
		MaxTokensCeiling: prov.MaxTokensLimit,
		PromptCaching:    s.promptCacheRequested(c),
	})
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	resp, err := s.up.Do(c.Request.Context(), prov, prov.UpstreamModel(model), out, stream)
	if err != nil {
		if c.Request.Context().Err() != nil {
			return
		}
		logging.Errorf("upstream %s: %v", prov.Type, err)
		apiError(c, http.StatusBadGateway, "api_error", "upstream request failed")
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.relayError(c, resp)
		return
	}
	if stream {
		s.relayStream(c, resp.Body, target, source)
		return
	}
	s.relayResponse(c, resp, target, source)
}

// relayResponse translates a completed upstream body back into the
// caller's protocol.
func (s *Server) relayResponse(c *gin.Context, resp *http.Response, target, source protocol.Protocol) {
	raw, err := upstream.ReadBody(resp)
	if err != nil {
		apiError(c, http.StatusBadGateway, "api_error", "failed to read upstream response")
		return
	}
	out, err := s.tr.TranslateResponse(raw, target, source)
	if err != nil {
		logging.Errorf("translate response %s -> %s: %v", target, source, err)
		apiError(c, http.StatusBadGateway, "api_error", "failed to translate upstream response")
		return
	}
	c.Data(http.StatusOK, "application/json", out)
}

// relayStream pumps the translated SSE stream to the client, flushing per
// read. Client disconnect cancels the request context, which closes the
// upstream body through the context-aware reader.
func (s *Server) relayStream(c *gin.Context, upstreamBody io.ReadCloser, target, source protocol.Protocol) {
	ctx := c.Request.Context()
	body := streamutil.NewReader(ctx, upstreamBody, string(target))
	rc, err := s.tr.TranslateStream(ctx, body, target, source)
	if err != nil {
		body.Close()
		apiError(c, http.StatusInternalServerError, "api_error", err.Error())
		return
	}
	defer rc.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, _ := c.Writer.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, rerr := rc.Read(buf)
		if n > 0 {
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if rerr != nil {
			if rerr != io.EOF && ctx.Err() == nil {
				logging.Warnf("stream %s -> %s ended: %v", target, source, rerr)
			}
			return
		}
	}
}

// relayError passes an upstream error body through untranslated, keeping
// the upstream status code.
func (s *Server) relayError(c *gin.Context, resp *http.Response) {
	raw, err := upstream.ReadBody(resp)
	if err != nil {
		apiError(c, http.StatusBadGateway, "api_error", "failed to read upstream error")
		return
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.StatusCode, contentType, raw)
}

// handleModels lists the configured models in the OpenAI list shape.
func (s *Server) handleModels(c *gin.Context) {
	cfg := s.cfg.Load()
	data := make([]gin.H, 0)
	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		for _, m := range p.Models {
			id := m.Alias
			if id == "" {
				id = m.Name
			}
			data = append(data, gin.H{
				"id":       id,
				"object":   "model",
				"owned_by": p.Type,
			})
		}
	}
	c.JSON(http.StatusOK, gin.H{"object": "list", "data": data})
}

func apiError(c *gin.Context, status int, kind, message string) {
	c.JSON(status, gin.H{"error": gin.H{"message": message, "type": kind}})
}
