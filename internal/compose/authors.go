package compose

import (
	"strings"

	"docfront/internal/model"
)

const (
	statusEnrolled  = "在学"
	statusGraduated = "既卒"
)

// AuthorIndex looks authors up by uuid.
type AuthorIndex map[string]model.Author

// IndexAuthors builds an AuthorIndex from an author snapshot. Later duplicates win.
func IndexAuthors(authors []model.Author) AuthorIndex {
	idx := make(AuthorIndex, len(authors))
	for _, a := range authors {
		idx[a.UUID] = a
	}
	return idx
}

// ResolveAuthors maps ids to display references in the order given.
// Ids missing from the index are dropped; this is not an error.
func ResolveAuthors(ids []string, idx AuthorIndex) []model.AuthorRef {
	refs := make([]model.AuthorRef, 0, len(ids))
	for _, id := range ids {
		a, ok := idx[id]
		if !ok {
			continue
		}
		refs = append(refs, model.AuthorRef{UUID: a.UUID, Name: a.DisplayName()})
	}
	return refs
}

// AuthorNames returns the display names of refs.
func AuthorNames(refs []model.AuthorRef) []string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}
	return names
}

// SummarizeAuthor builds the listing entry of a.
func SummarizeAuthor(a model.Author) model.AuthorSummary {
	status := statusEnrolled
	if a.IsGraduated {
		status = statusGraduated
	}
	return model.AuthorSummary{
		UUID:        a.UUID,
		Name:        a.DisplayName(),
		NameEn:      strings.TrimSpace(a.FirstNameEn + " " + a.LastNameEn),
		JoinedYear:  a.JoinedYear,
		IsGraduated: a.IsGraduated,
		Status:      status,
	}
}

// MatchAuthors keeps the candidates whose name contains keyword, deduplicated
// by uuid, in candidate order. Candidates come from the author service name
// search; the check is repeated here so the list is consistent with the
// keyword shown to the user.
func MatchAuthors(keyword string, candidates []model.Author) []model.AuthorSummary {
	out := make([]model.AuthorSummary, 0, len(candidates))
	if keyword == "" {
		return out
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, a := range candidates {
		if _, dup := seen[a.UUID]; dup {
			continue
		}
		if !authorNameContains(a, keyword) {
			continue
		}
		seen[a.UUID] = struct{}{}
		out = append(out, SummarizeAuthor(a))
	}
	return out
}

func authorNameContains(a model.Author, keyword string) bool {
	fields := []string{
		a.FirstNameJa, a.MiddleNameJa, a.LastNameJa,
		a.FirstNameEn, a.MiddleNameEn, a.LastNameEn,
		a.DisplayName(),
		a.LastNameJa + a.FirstNameJa,
		strings.TrimSpace(a.FirstNameEn + " " + a.LastNameEn),
	}
	for _, f := range fields {
		if f != "" && containsFold(f, keyword) {
			return true
		}
	}
	return false
}
