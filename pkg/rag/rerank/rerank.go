// FILE: pkg/rag/rerank/rerank.go
// PURPOSE: Lexical re-scoring, content dedup, and truncation of evidence

package rerank

import (
	"hash/fnv"
	"sort"
	"strings"

	"survey-chat-be/pkg/rag/state"
)

const (
	// MaxDocs bounds the evidence set after reranking.
	MaxDocs = 20
	// overlapWeight scales the shared-token bonus; small by comparison with
	// retrieval scores so reranking reorders, it does not dominate.
	overlapWeight = 0.05
	overlapCap    = 0.30
	// dedupPrefix is how much leading content identifies a duplicate.
	dedupPrefix = 80
)

// Rerank re-scores evidence by lexical overlap with the resolved question,
// sorts descending, deduplicates by a hash of a content prefix, and
// truncates. It is idempotent: reranking an already reranked list returns
// the same list.
func Rerank(docs []state.Evidence, resolvedQuestion string) []state.Evidence {
	if len(docs) == 0 {
		return docs
	}

	queryTokens := tokenize(resolvedQuestion)

	scored := make([]state.Evidence, len(docs))
	copy(scored, docs)
	for i := range scored {
		bonus := overlapBonus(queryTokens, scored[i].Text)
		scored[i].FinalScore = scored[i].RelevanceScore + bonus
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].FinalScore > scored[j].FinalScore
	})

	seen := make(map[uint64]bool, len(scored))
	out := make([]state.Evidence, 0, len(scored))
	for _, doc := range scored {
		key := contentKey(doc.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, doc)
		if len(out) == MaxDocs {
			break
		}
	}

	return out
}

func overlapBonus(queryTokens []string, text string) float64 {
	bonus := 0.0
	for _, token := range queryTokens {
		if strings.Contains(text, token) {
			bonus += overlapWeight
		}
		if bonus >= overlapCap {
			return overlapCap
		}
	}
	return bonus
}

func tokenize(s string) []string {
	fields := strings.Fields(s)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,?!\"'()")
		if len([]rune(f)) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func contentKey(text string) uint64 {
	runes := []rune(text)
	if len(runes) > dedupPrefix {
		runes = runes[:dedupPrefix]
	}
	h := fnv.New64a()
	h.Write([]byte(string(runes)))
	return h.Sum64()
}
