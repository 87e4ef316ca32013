package themes

import (
	"sort"
	"strings"

	"docquery/internal/models"
)

// NameSimilarity is word-set Jaccard overlap between two theme names. Two
// names with no words between them have zero similarity, whatever the
// threshold.
func NameSimilarity(a, b string) float64 {
	wa := nameWords(a)
	wb := nameWords(b)
	union := len(wb)
	inter := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// MergeSimilarThemes folds themes with near-identical names into one: the
// union of supporting documents, the highest relevance, and concatenated
// evidence. Earlier themes absorb later ones, so input order decides which
// name and summary survive.
func MergeSimilarThemes(themes []models.Theme, threshold float64) []models.Theme {
	merged := make([]models.Theme, 0, len(themes))
	for _, t := range themes {
		folded := false
		for i := range merged {
			if NameSimilarity(merged[i].ThemeName, t.ThemeName) >= threshold {
				merged[i].SupportingDocuments = unionDocs(merged[i].SupportingDocuments, t.SupportingDocuments)
				if t.Relevance > merged[i].Relevance {
					merged[i].Relevance = t.Relevance
				}
				if t.Evidence != "" && t.Evidence != merged[i].Evidence {
					merged[i].Evidence = merged[i].Evidence + "\n" + t.Evidence
				}
				folded = true
				break
			}
		}
		if !folded {
			merged = append(merged, t)
		}
	}
	return merged
}

func nameWords(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}

func unionDocs(a, b []string) []string {
	seen := make(map[string]struct{}, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, id := range a {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range b {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func sortByRelevance(themes []models.Theme) {
	sort.SliceStable(themes, func(i, j int) bool { return themes[i].Relevance > themes[j].Relevance })
}
