// Package biz implements the chatbot's business logic: query embedding,
// filtered retrieval, scope detection, grounded response generation,
// citation building, and the per-turn orchestration pipeline.
package biz

// OutOfScopeThreshold is the similarity score below which the best retrieval
// hit is considered too dissimilar to ground an answer. A single-feature
// heuristic, not a classifier; expect false positives and negatives near the
// boundary.
const OutOfScopeThreshold = 0.3

// IsOutOfScope reports whether the top retrieval score falls below the scope
// threshold. A score of exactly OutOfScopeThreshold counts as in scope.
func IsOutOfScope(maxScore float64) bool {
	return maxScore < OutOfScopeThreshold
}
