package insights

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// minTopicLength is the shortest token counted as a topic
const minTopicLength = 5

// TopicCounter accumulates token frequencies across a batch of posts
type TopicCounter struct {
	counts map[string]int
	order  []string
}

func NewTopicCounter() *TopicCounter {
	return &TopicCounter{counts: make(map[string]int)}
}

// Add splits text on whitespace and counts every token longer than four
// characters. Punctuation is kept as part of the token.
func (c *TopicCounter) Add(text string) {
	for _, token := range strings.Fields(text) {
		if utf8.RuneCountInString(token) < minTopicLength {
			continue
		}
		if _, ok := c.counts[token]; !ok {
			c.order = append(c.order, token)
		}
		c.counts[token]++
	}
}

// Top returns up to n tokens by descending count. Equal counts keep the order
// in which tokens were first seen.
func (c *TopicCounter) Top(n int) []string {
	tokens := make([]string, len(c.order))
	copy(tokens, c.order)
	sort.SliceStable(tokens, func(i, j int) bool {
		return c.counts[tokens[i]] > c.counts[tokens[j]]
	})
	if len(tokens) > n {
		tokens = tokens[:n]
	}
	return tokens
}

// Count returns the frequency recorded for token
func (c *TopicCounter) Count(token string) int {
	return c.counts[token]
}
