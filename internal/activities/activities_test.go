package activities

import (
	"context"
	"testing"

	"docquery/internal/textseg"
)

func segmentingActivities(t *testing.T) *Activities {
	t.Helper()
	seg, err := textseg.New()
	if err != nil {
		t.Fatalf("new segmenter: %v", err)
	}
	return &Activities{segmenter: seg}
}

func TestSegmentTextActivityPageAttribution(t *testing.T) {
	a := segmentingActivities(t)
	text := "--- Page 1 ---\n\nFirst page paragraph.\n\n--- Page 2 ---\n\nSecond page paragraph.\n\nStill second page."
	out, err := a.SegmentTextActivity(context.Background(), SegmentTextInput{
		DocumentID:       "doc1",
		Text:             text,
		EmbeddingVersion: "v1",
	})
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	if len(out.Passages) != 3 {
		t.Fatalf("marker-only paragraphs must not become passages, got %d", len(out.Passages))
	}
	if p := out.Passages[0].Page; p == nil || *p != 0 {
		t.Fatalf("first passage must sit on page 0, got %+v", p)
	}
	for _, passage := range out.Passages[1:] {
		if passage.Page == nil || *passage.Page != 1 {
			t.Fatalf("later passages must sit on page 1, got %+v", passage.Page)
		}
	}
}

func TestSegmentTextActivityStableIDs(t *testing.T) {
	a := segmentingActivities(t)
	in := SegmentTextInput{DocumentID: "doc1", Text: "One paragraph only.", EmbeddingVersion: "v1"}
	first, err := a.SegmentTextActivity(context.Background(), in)
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	second, err := a.SegmentTextActivity(context.Background(), in)
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	if first.Passages[0].PassageID != second.Passages[0].PassageID {
		t.Fatal("passage ids must be deterministic for identical input")
	}

	in.EmbeddingVersion = "v2"
	third, err := a.SegmentTextActivity(context.Background(), in)
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	if first.Passages[0].PassageID == third.Passages[0].PassageID {
		t.Fatal("changing the embedding version must change passage ids")
	}
}

func TestPageAt(t *testing.T) {
	markers := []pageMarker{{offset: 0, page: 1}, {offset: 100, page: 2}}
	if p := pageAt(markers, 50); p == nil || *p != 0 {
		t.Fatalf("expected page 0, got %+v", p)
	}
	if p := pageAt(markers, 150); p == nil || *p != 1 {
		t.Fatalf("expected page 1, got %+v", p)
	}
	if p := pageAt(nil, 10); p != nil {
		t.Fatalf("no markers means no page, got %+v", p)
	}
}
