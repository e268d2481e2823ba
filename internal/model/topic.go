package model

// Topics is the closed catalog of subscribable subjects. Digest building
// iterates in this order so article ordering is deterministic.
var Topics = []string{"sports", "technology", "health", "business", "entertainment"}

var topicSet = func() map[string]bool {
	m := make(map[string]bool, len(Topics))
	for _, t := range Topics {
		m[t] = true
	}
	return m
}()

// ValidTopic reports whether t is part of the catalog.
func ValidTopic(t string) bool {
	return topicSet[t]
}
