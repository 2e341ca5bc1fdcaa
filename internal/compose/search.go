package compose

import "docfront/internal/model"

// SearchMatch is one paper selected by the home/search merge together with
// every fulltext highlight that referenced it.
type SearchMatch struct {
	Paper      model.Paper
	Highlights []string
}

// MergeSearch selects the papers to show for keyword.
//
// With an empty keyword every paper is selected. Otherwise papers whose title
// contains keyword come first, in snapshot order, followed by papers only
// reached through fulltext hits, in hit order. A paper appears at most once;
// all highlights of its hits are attached to that single entry. Hits whose
// paper is not in the snapshot are dropped.
func MergeSearch(keyword string, papers []model.Paper, hits []model.FulltextHit) []SearchMatch {
	if keyword == "" {
		out := make([]SearchMatch, len(papers))
		for i, p := range papers {
			out[i] = SearchMatch{Paper: p}
		}
		return out
	}

	byID := make(map[string]model.Paper, len(papers))
	for _, p := range papers {
		byID[p.UUID] = p
	}

	highlights := make(map[string][]string)
	var hitOrder []string
	for _, h := range hits {
		if _, ok := highlights[h.PaperUUID]; !ok {
			hitOrder = append(hitOrder, h.PaperUUID)
			highlights[h.PaperUUID] = []string{}
		}
		highlights[h.PaperUUID] = append(highlights[h.PaperUUID], h.Highlight...)
	}

	var out []SearchMatch
	selected := make(map[string]struct{})
	for _, p := range papers {
		if _, dup := selected[p.UUID]; dup || !containsFold(p.Title, keyword) {
			continue
		}
		selected[p.UUID] = struct{}{}
		out = append(out, SearchMatch{Paper: p, Highlights: highlights[p.UUID]})
	}
	for _, id := range hitOrder {
		if _, dup := selected[id]; dup {
			continue
		}
		p, ok := byID[id]
		if !ok {
			continue
		}
		selected[id] = struct{}{}
		out = append(out, SearchMatch{Paper: p, Highlights: highlights[id]})
	}
	return out
}
