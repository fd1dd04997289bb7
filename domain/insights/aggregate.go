package insights

import (
	"sort"
	"strings"
	"unicode"

	"subscout/domain/core/entities"
)

// TrendingWindow is the number of most recent insights trending tags are
// computed over.
const TrendingWindow = 100

// TitleNormalizer maps an insight title to the key pain points are grouped by
type TitleNormalizer interface {
	Normalize(title string) string
}

// ExactTitle groups by the literal title
type ExactTitle struct{}

func (ExactTitle) Normalize(title string) string { return title }

// FoldedTitle groups titles that differ only in case, surrounding
// punctuation or inner whitespace.
type FoldedTitle struct{}

func (FoldedTitle) Normalize(title string) string {
	words := strings.Fields(strings.ToLower(title))
	for i, w := range words {
		words[i] = strings.TrimFunc(w, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
	}
	return strings.Join(words, " ")
}

// NormalizerFor returns the normalizer configured by name. Unknown names fall
// back to exact grouping.
func NormalizerFor(name string) TitleNormalizer {
	if name == "folded" {
		return FoldedTitle{}
	}
	return ExactTitle{}
}

// TitleCount is one row of the top pain points view
type TitleCount struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

// TagCount is one row of the trending topics view
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// GroupLimit is how many exact-title groups TopTitles needs to produce limit
// rows under norm. Any normalizer that merges titles needs every group, which
// is reported as -1.
func GroupLimit(norm TitleNormalizer, limit int) int {
	switch norm.(type) {
	case nil, ExactTitle, *ExactTitle:
		return limit
	}
	return -1
}

// TopTitles regroups exact-title counts through norm and returns the limit
// largest groups. A merged group is reported under the first title seen for
// it. Equal counts keep input order.
func TopTitles(groups []TitleCount, norm TitleNormalizer, limit int) []TitleCount {
	if norm == nil {
		norm = ExactTitle{}
	}

	index := make(map[string]int)
	merged := make([]TitleCount, 0, len(groups))
	for _, g := range groups {
		key := norm.Normalize(g.Title)
		if i, ok := index[key]; ok {
			merged[i].Count += g.Count
			continue
		}
		index[key] = len(merged)
		merged = append(merged, g)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Count > merged[j].Count
	})
	if limit >= 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// TrendingTags counts array tags over at most the first TrendingWindow
// insights, which callers pass newest first.
func TrendingTags(recent []*entities.Insight, limit int) []TagCount {
	if len(recent) > TrendingWindow {
		recent = recent[:TrendingWindow]
	}

	index := make(map[string]int)
	var counts []TagCount
	for _, insight := range recent {
		for _, tag := range insight.Tags.Labels() {
			if i, ok := index[tag]; ok {
				counts[i].Count++
				continue
			}
			index[tag] = len(counts)
			counts = append(counts, TagCount{Tag: tag, Count: 1})
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}
	if counts == nil {
		counts = []TagCount{}
	}
	return counts
}
