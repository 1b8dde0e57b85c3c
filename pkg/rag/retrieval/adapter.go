// FILE: pkg/rag/retrieval/adapter.go
// PURPOSE: Vector retrieval with boosting, per-source interleave, and parent expansion

package retrieval

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"survey-chat-be/pkg/rag/state"
)

// DocType tags distinguish page-level summaries from their detail fragments.
const (
	DocTypeSummary  = "summary"
	DocTypeFragment = "fragment"
)

// Searcher is the similarity-service contract the adapter consumes. The
// engine behind it (pgvector, in production) is opaque here.
type Searcher interface {
	// Search runs one query against summary-type records, optionally
	// restricted to the given source ids.
	Search(ctx context.Context, query string, k int, sourceIDs []string) ([]state.Evidence, error)

	// GetByParent returns the ordered detail fragments of a parent unit.
	GetByParent(ctx context.Context, parentID string) ([]state.Evidence, error)
}

// Tier holds the retrieval parameters. The widened tier is used after a
// FAIL_NO_EVIDENCE retry and is strictly larger in every dimension.
type Tier struct {
	K                  int // nearest neighbors per query
	PerSourceCap       int
	OverallCap         int
	FragmentsPerParent int
	MaxBlockChars      int
}

func DefaultTier() Tier {
	return Tier{K: 6, PerSourceCap: 3, OverallCap: 10, FragmentsPerParent: 4, MaxBlockChars: 1200}
}

func WidenedTier() Tier {
	return Tier{K: 12, PerSourceCap: 5, OverallCap: 16, FragmentsPerParent: 4, MaxBlockChars: 1200}
}

// Per-hit lexical boost: small, bounded, based on literal token matches.
const (
	boostPerToken = 0.03
	boostCap      = 0.15
)

// Result is the assembled evidence context plus provenance metadata.
type Result struct {
	Docs          []state.Evidence
	Context       string
	ParentIDs     []string
	FilesSearched []string
	DocCount      int
}

// Adapter issues similarity queries, scores and dedupes hits, expands parent
// units into their fragments, and renders a bounded evidence context.
type Adapter struct {
	searcher Searcher
	logger   *log.Logger
}

func NewAdapter(searcher Searcher, logger *log.Logger) *Adapter {
	return &Adapter{searcher: searcher, logger: logger}
}

// Retrieve runs the full retrieval algorithm. Single-query failures and
// missing sources are swallowed; if everything fails the result is an empty
// context, never an error.
func (a *Adapter) Retrieve(ctx context.Context, queries []string, sourceIDs []string, tier Tier) *Result {
	hits := a.collect(ctx, queries, sourceIDs, tier)
	if len(hits) == 0 {
		a.logger.Printf("[RETRIEVAL] no hits for %d queries across %d sources", len(queries), len(sourceIDs))
		return &Result{FilesSearched: sourceIDs}
	}

	selected := selectTop(hits, sourceIDs, tier)

	docs := make([]state.Evidence, 0, len(selected)*(1+tier.FragmentsPerParent))
	parentIDs := make([]string, 0, len(selected))
	for _, hit := range selected {
		docs = append(docs, hit)
		parentIDs = append(parentIDs, hit.ParentID)

		fragments, err := a.searcher.GetByParent(ctx, hit.ParentID)
		if err != nil {
			a.logger.Printf("[RETRIEVAL] fragment fetch failed for parent %s: %v", hit.ParentID, err)
			continue
		}
		// Fragments come back in original document order; keep the first N.
		sort.SliceStable(fragments, func(i, j int) bool {
			return fragments[i].FragmentIndex < fragments[j].FragmentIndex
		})
		if len(fragments) > tier.FragmentsPerParent {
			fragments = fragments[:tier.FragmentsPerParent]
		}
		docs = append(docs, fragments...)
	}

	return &Result{
		Docs:          docs,
		Context:       RenderContext(docs, tier.MaxBlockChars),
		ParentIDs:     parentIDs,
		FilesSearched: sourceIDs,
		DocCount:      len(docs),
	}
}

// collect runs every query per targeted source (or globally when
// unfiltered), deduplicating by (parent id, page) with first-seen score.
func (a *Adapter) collect(ctx context.Context, queries []string, sourceIDs []string, tier Tier) []state.Evidence {
	targets := make([][]string, 0, len(sourceIDs))
	if len(sourceIDs) == 0 {
		targets = append(targets, nil)
	} else {
		for _, src := range sourceIDs {
			targets = append(targets, []string{src})
		}
	}

	seen := make(map[string]bool)
	var hits []state.Evidence

	for _, target := range targets {
		for _, query := range queries {
			results, err := a.searcher.Search(ctx, query, tier.K, target)
			if err != nil {
				a.logger.Printf("[RETRIEVAL] search failed (query=%q target=%v): %v", truncate(query, 40), target, err)
				continue
			}
			for _, hit := range results {
				key := fmt.Sprintf("%s|%d", hit.ParentID, hit.Page)
				if seen[key] {
					continue
				}
				seen[key] = true
				hit.FinalScore = hit.RelevanceScore + lexicalBoost(query, hit.Text)
				hits = append(hits, hit)
			}
		}
	}

	return hits
}

// selectTop sorts by boosted score and, when filtering per-source,
// interleaves round-robin by source so every targeted source contributes at
// least one top unit before remaining slots fill by global score.
func selectTop(hits []state.Evidence, sourceIDs []string, tier Tier) []state.Evidence {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].FinalScore > hits[j].FinalScore
	})

	if len(sourceIDs) == 0 {
		if len(hits) > tier.OverallCap {
			hits = hits[:tier.OverallCap]
		}
		return hits
	}

	bySource := make(map[string][]state.Evidence)
	for _, hit := range hits {
		bySource[hit.SourceID] = append(bySource[hit.SourceID], hit)
	}

	var selected []state.Evidence
	taken := make(map[string]int)

	// Round 1..PerSourceCap: one unit per source per round, in the caller's
	// source order, so no targeted source is starved by a dominant one.
	for round := 0; round < tier.PerSourceCap && len(selected) < tier.OverallCap; round++ {
		for _, src := range sourceIDs {
			if len(selected) >= tier.OverallCap {
				break
			}
			pool := bySource[src]
			if taken[src] < len(pool) {
				selected = append(selected, pool[taken[src]])
				taken[src]++
			}
		}
	}

	return selected
}

// lexicalBoost adds a small bonus per literal query-token match (length >= 2)
// in the hit text, bounded overall.
func lexicalBoost(query, text string) float64 {
	boost := 0.0
	for _, token := range strings.Fields(query) {
		token = strings.Trim(token, ".,?!\"'")
		if len([]rune(token)) < 2 {
			continue
		}
		if strings.Contains(text, token) {
			boost += boostPerToken
		}
		if boost >= boostCap {
			return boostCap
		}
	}
	return boost
}

// RenderContext renders evidence blocks with their source-and-location tags,
// each truncated to the per-unit character budget.
func RenderContext(docs []state.Evidence, maxBlockChars int) string {
	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("[%d p.%d] %s", doc.Year, doc.Page, truncate(doc.Text, maxBlockChars)))
	}
	return sb.String()
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
