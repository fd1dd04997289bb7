// Package insights holds the pure text rules of the scan pipeline: keyword
// classification, topic counting, list capping and the two read-side
// aggregations.
package insights

import "strings"

// MaxPerCategory caps painPoints, featureRequests, commonTopics and the
// returned post sample of a scan.
const MaxPerCategory = 10

var painPointLexicon = []string{
	"problem", "issue", "frustrating", "difficult", "annoying", "hate", "sucks", "broken",
}

var featureRequestLexicon = []string{
	"want", "need", "wish", "should", "could", "feature", "improvement",
}

// Classification is the category membership of one post
type Classification struct {
	IsPainPoint      bool
	IsFeatureRequest bool
}

// Classify tests text against both lexicons by substring containment. The
// categories are not exclusive. Input is lowercased here so callers may pass
// raw text.
func Classify(text string) Classification {
	lower := strings.ToLower(text)
	return Classification{
		IsPainPoint:      containsAny(lower, painPointLexicon),
		IsFeatureRequest: containsAny(lower, featureRequestLexicon),
	}
}

// PostText is the text a post is classified on
func PostText(title, body string) string {
	return strings.ToLower(title + " " + body)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// UniqueCapped removes exact duplicates keeping first-seen order and returns
// at most limit entries.
func UniqueCapped(items []string, limit int) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, min(len(items), limit))
	for _, item := range items {
		if len(out) == limit {
			break
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
