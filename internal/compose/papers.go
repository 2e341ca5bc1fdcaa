package compose

import (
	"sort"
	"time"

	"docfront/internal/model"
)

const dateLayout = "2006/01/02"

// FormatDate renders t in loc for display, or "" for the zero time.
func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(dateLayout)
}

// DownloadIndex maps paper uuid to total downloads.
type DownloadIndex map[string]int

// IndexDownloads builds a DownloadIndex from a stats snapshot.
func IndexDownloads(stats []model.StatsCount) DownloadIndex {
	idx := make(DownloadIndex, len(stats))
	for _, s := range stats {
		idx[s.PaperUUID] = s.TotalDownloads
	}
	return idx
}

// Count returns the downloads of paper id, 0 when unknown.
func (d DownloadIndex) Count(id string) int {
	return d[id]
}

// BuildPaperView joins p with its authors, download count and highlights.
func BuildPaperView(p model.Paper, authors AuthorIndex, downloads int, highlights []string, loc *time.Location) model.PaperView {
	refs := ResolveAuthors(p.AuthorUUID, authors)
	if highlights == nil {
		highlights = []string{}
	}
	return model.PaperView{
		UUID:        p.UUID,
		Title:       p.Title,
		Label:       p.Label,
		Authors:     refs,
		AuthorNames: AuthorNames(refs),
		CreatedAt:   FormatDate(p.CreatedAt.Time, loc),
		Downloads:   downloads,
		Highlights:  highlights,
		Created:     p.CreatedAt.Time,
	}
}

// PublicPapers returns the papers flagged public, in input order.
func PublicPapers(papers []model.Paper) []model.Paper {
	out := make([]model.Paper, 0, len(papers))
	for _, p := range papers {
		if p.IsPublic {
			out = append(out, p)
		}
	}
	return out
}

// PapersByAuthor returns the public papers listing authorID, newest first.
func PapersByAuthor(papers []model.Paper, authorID string) []model.Paper {
	var out []model.Paper
	for _, p := range PublicPapers(papers) {
		for _, id := range p.AuthorUUID {
			if id == authorID {
				out = append(out, p)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	return out
}
