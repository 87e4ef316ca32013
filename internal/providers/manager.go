package providers

import (
	"fmt"
	"strings"

	"docquery/internal/config"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

type NamedEmbedProvider struct {
	Ref      ProviderRef
	Provider EmbeddingProvider
}

// Manager owns the configured provider roster. There are no process-wide
// client singletons: a Manager is constructed explicitly and passed to
// whatever needs upstream calls, so tests can substitute providers freely.
type Manager struct {
	llmProviders   []NamedLLMProvider
	embedProviders []NamedEmbedProvider
}

type credentialed interface {
	HasCredential() bool
}

func NewManager(cfg config.Config) (*Manager, error) {
	m := &Manager{}
	for _, ref := range ParseProviderList(cfg.LLMProviders) {
		p, err := buildProvider(ref, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
		llm, ok := p.(LLMProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support generation", ref.Raw)
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: llm})
	}
	for _, ref := range ParseProviderList(cfg.EmbedProviders) {
		p, err := buildProvider(ref, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
		embed, ok := p.(EmbeddingProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support embeddings", ref.Raw)
		}
		m.embedProviders = append(m.embedProviders, NamedEmbedProvider{Ref: ref, Provider: embed})
	}
	return m, nil
}

// LLM returns the first usable text-generation provider. ok is false when
// none is configured or the configured ones lack credentials; callers treat
// that as the explicit "upstream unavailable" state and fall back or
// short-circuit rather than erroring.
func (m *Manager) LLM() (LLMProvider, bool) {
	for _, p := range m.llmProviders {
		if usable(p.Provider) {
			return p.Provider, true
		}
	}
	return nil, false
}

func (m *Manager) Embedder() (EmbeddingProvider, bool) {
	for _, p := range m.embedProviders {
		if usable(p.Provider) {
			return p.Provider, true
		}
	}
	return nil, false
}

func (m *Manager) LLMRefs() []string {
	out := make([]string, 0, len(m.llmProviders))
	for _, p := range m.llmProviders {
		out = append(out, p.Ref.Raw)
	}
	return out
}

func usable(p any) bool {
	if c, ok := p.(credentialed); ok {
		return c.HasCredential()
	}
	return true
}

func buildProvider(ref ProviderRef, dim int) (any, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(dim), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "gemini":
		return NewGeminiProvider(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
