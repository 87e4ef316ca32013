package themes

import "testing"

func TestExtractKeySectionsKeepsOpeningParagraph(t *testing.T) {
	content := "Short intro.\n\nA much longer middle paragraph with plenty of words in it.\n\nTail."
	sections := ExtractKeySections(content, 2)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0] != "Short intro." {
		t.Fatalf("the opening paragraph always comes first, got %q", sections[0])
	}
	if sections[1] != "A much longer middle paragraph with plenty of words in it." {
		t.Fatalf("remaining sections rank by length, got %q", sections[1])
	}
}

func TestExtractKeySectionsCap(t *testing.T) {
	content := "One.\n\nTwo.\n\nThree.\n\nFour.\n\nFive.\n\nSix.\n\nSeven."
	if got := len(ExtractKeySections(content, 5)); got != 5 {
		t.Fatalf("expected cap at 5 sections, got %d", got)
	}
}

func TestExtractKeySectionsEmpty(t *testing.T) {
	if got := ExtractKeySections("   \n\n  ", 5); got != nil {
		t.Fatalf("expected nil for blank content, got %+v", got)
	}
}
