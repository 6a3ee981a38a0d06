package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiTestClient(srvURL string) *GeminiClient {
	return NewGeminiClient(GeminiConfig{
		APIKey:          "test-key",
		Model:           "gemini-1.5-flash",
		BaseURL:         srvURL,
		Timeout:         time.Second,
		Temperature:     0.2,
		MaxOutputTokens: 2048,
	})
}

func TestGenerateContent_RequestShape(t *testing.T) {
	var captured geminiRequest
	var capturedPath, capturedKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedKey = r.URL.Query().Get("key")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"type\":\"unknown\"}"}]}}]}`))
	}))
	defer srv.Close()

	c := geminiTestClient(srv.URL)
	img := []byte{0x89, 0x50, 0x4E, 0x47}
	out, err := c.GenerateContent(context.Background(), "classify this", img, "image/png")

	require.NoError(t, err)
	assert.Equal(t, `{"type":"unknown"}`, out)
	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", capturedPath)
	assert.Equal(t, "test-key", capturedKey)

	require.Len(t, captured.Contents, 1)
	require.Len(t, captured.Contents[0].Parts, 2)
	assert.Equal(t, "classify this", captured.Contents[0].Parts[0].Text)
	require.NotNil(t, captured.Contents[0].Parts[1].InlineData)
	assert.Equal(t, "image/png", captured.Contents[0].Parts[1].InlineData.MIMEType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(img), captured.Contents[0].Parts[1].InlineData.Data)

	assert.Equal(t, 0.2, captured.GenerationConfig.Temperature)
	assert.Equal(t, 1.0, captured.GenerationConfig.TopP)
	assert.Equal(t, 1, captured.GenerationConfig.TopK)
	assert.Equal(t, 2048, captured.GenerationConfig.MaxOutputTokens)
}

func TestGenerateContent_ConcatenatesParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"type\":"},{"text":"\"steps\",\"value\":100}"}]}}]}`))
	}))
	defer srv.Close()

	out, err := geminiTestClient(srv.URL).GenerateContent(context.Background(), "p", nil, "")
	require.NoError(t, err)
	assert.Equal(t, `{"type":"steps","value":100}`, out)
}

func TestGenerateContent_MissingAPIKey(t *testing.T) {
	c := NewGeminiClient(GeminiConfig{BaseURL: "http://localhost"})
	_, err := c.GenerateContent(context.Background(), "p", nil, "")
	assert.Error(t, err)
}

func TestGenerateContent_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := geminiTestClient(srv.URL).GenerateContent(context.Background(), "p", nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerateContent_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	_, err := geminiTestClient(srv.URL).GenerateContent(context.Background(), "p", nil, "")
	assert.Error(t, err)
}
