package providers

import "testing"

func TestParseProviderList(t *testing.T) {
	refs := ParseProviderList("openai:primary | gemini | mock")
	if len(refs) != 3 {
		t.Fatalf("expected 3 refs, got %d", len(refs))
	}
	if refs[0].Name != "openai" || refs[0].KeyAlias != "primary" {
		t.Fatalf("unexpected first ref: %+v", refs[0])
	}
	if refs[1].Name != "gemini" || refs[1].KeyAlias != "" {
		t.Fatalf("unexpected second ref: %+v", refs[1])
	}
	if refs[2].Name != "mock" {
		t.Fatalf("unexpected third ref: %+v", refs[2])
	}
}

func TestParseProviderListEmpty(t *testing.T) {
	if refs := ParseProviderList(""); len(refs) != 0 {
		t.Fatalf("empty list should parse to no refs, got %d", len(refs))
	}
	if refs := ParseProviderList(" | | "); len(refs) != 0 {
		t.Fatalf("blank entries should parse to no refs, got %d", len(refs))
	}
}
