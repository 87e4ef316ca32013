package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// GeminiProvider calls the Generative Language REST API. It is the default
// real provider for theme extraction, mirroring the embedding model used at
// ingest time.
type GeminiProvider struct {
	keyName string
	apiKey  string
	client  *http.Client
}

func NewGeminiProvider(keyName string) *GeminiProvider {
	return &GeminiProvider{
		keyName: keyName,
		apiKey:  resolveGeminiKey(keyName),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *GeminiProvider) HasCredential() bool {
	return g.apiKey != ""
}

func (g *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	model := "gemini-1.5-flash"
	info := ProviderInfo{Name: "gemini", Model: model, Key: g.keyName}
	if g.apiKey == "" {
		return GenerateResponse{}, info, fmt.Errorf("gemini api key missing for alias %q", g.keyName)
	}
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + prompt
	}
	payload, _ := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	})
	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", model, g.apiKey)
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("gemini generate request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return GenerateResponse{}, info, fmt.Errorf("gemini generate error %d: %s", resp.StatusCode, string(body))
	}
	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return GenerateResponse{}, info, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return GenerateResponse{}, info, fmt.Errorf("gemini returned no candidates")
	}
	return GenerateResponse{Text: parsed.Candidates[0].Content.Parts[0].Text}, info, nil
}

func (g *GeminiProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	model := "text-embedding-004"
	info := ProviderInfo{Name: "gemini", Model: model, Key: g.keyName}
	if g.apiKey == "" {
		return nil, info, fmt.Errorf("gemini api key missing for alias %q", g.keyName)
	}
	out := make([][]float32, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		payload, _ := json.Marshal(map[string]any{
			"model":   "models/" + model,
			"content": map[string]any{"parts": []map[string]string{{"text": input}}},
		})
		url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:embedContent?key=%s", model, g.apiKey)
		httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		httpReq.Header.Set("Content-Type", "application/json")
		resp, err := g.client.Do(httpReq)
		if err != nil {
			return nil, info, fmt.Errorf("gemini embed request failed: %w", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return nil, info, fmt.Errorf("gemini embed error %d: %s", resp.StatusCode, string(body))
		}
		var parsed struct {
			Embedding struct {
				Values []float32 `json:"values"`
			} `json:"embedding"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, info, fmt.Errorf("decode gemini embedding: %w", err)
		}
		out = append(out, parsed.Embedding.Values)
	}
	return out, info, nil
}

func resolveGeminiKey(alias string) string {
	if alias != "" {
		if k := os.Getenv("DOCQUERY_GEMINI_KEY_" + strings.ToUpper(alias)); k != "" {
			return k
		}
	}
	return os.Getenv("GEMINI_API_KEY")
}
