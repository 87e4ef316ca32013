package citation

import "testing"

func intp(n int) *int { return &n }

func TestFormat(t *testing.T) {
	cases := []struct {
		name                 string
		page, para, sentence *int
		want                 string
	}{
		{"document only", nil, nil, nil, "report.pdf"},
		{"page", intp(2), nil, nil, "report.pdf, Page 3"},
		{"paragraph", nil, intp(1), nil, "report.pdf, Para 2"},
		{"sentence", intp(0), intp(2), intp(1), "report.pdf, Page 1, Para 3, Sentence 2"},
		{"sentence without page", nil, intp(0), intp(0), "report.pdf, Para 1, Sentence 1"},
	}
	for _, c := range cases {
		if got := Format("report.pdf", c.page, c.para, c.sentence); got != c.want {
			t.Fatalf("%s: got %q want %q", c.name, got, c.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"document":  LevelDocument,
		"Sentence":  LevelSentence,
		"paragraph": LevelParagraph,
		"":          LevelParagraph,
		"banana":    LevelParagraph,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("parse %q: got %s want %s", in, got, want)
		}
	}
}

func TestLevelString(t *testing.T) {
	if LevelDocument.String() != "document" || LevelParagraph.String() != "paragraph" || LevelSentence.String() != "sentence" {
		t.Fatal("level names changed")
	}
}
