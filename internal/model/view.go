package model

import "time"

// View models are request-scoped: built fresh by the compose package for each
// inbound request and handed to presentation as JSON.

// AuthorRef is a resolved author reference inside a paper view.
type AuthorRef struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// PaperView is the joined view of one paper.
type PaperView struct {
	UUID        string      `json:"uuid"`
	Title       string      `json:"title"`
	Label       string      `json:"label"`
	Authors     []AuthorRef `json:"authors"`
	AuthorNames []string    `json:"author_names"`
	CreatedAt   string      `json:"created_at"`
	Downloads   int         `json:"downloads"`
	Highlights  []string    `json:"highlights"`

	// Created is the parsed creation time used for bucketing and ordering.
	Created time.Time `json:"-"`
}

// PaperGroup is one creation-month bucket of papers.
type PaperGroup struct {
	Key    string      `json:"key"`
	Label  string      `json:"label"`
	Papers []PaperView `json:"papers"`
}

// AuthorSummary is an author entry in listing views.
type AuthorSummary struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	NameEn      string `json:"name_en,omitempty"`
	JoinedYear  int    `json:"joined_year"`
	IsGraduated bool   `json:"is_graduated"`
	Status      string `json:"status"`
}

// HomeView is the home/search page model.
type HomeView struct {
	Keyword        string          `json:"keyword"`
	Groups         []PaperGroup    `json:"groups"`
	MatchedAuthors []AuthorSummary `json:"matched_authors"`
	Degraded       []string        `json:"degraded,omitempty"`
}

// PaperDetailView is the paper detail page model.
type PaperDetailView struct {
	Paper      PaperView `json:"paper"`
	UpdatedAt  string    `json:"updated_at"`
	Abstract   string    `json:"abstract"`
	Thumbnails []string  `json:"thumbnails"`
	BibTeX     string    `json:"bibtex"`
	Degraded   []string  `json:"degraded,omitempty"`
}

// AuthorDetailView is the author detail page model.
type AuthorDetailView struct {
	Author AuthorSummary `json:"author"`
	Papers []PaperView   `json:"papers"`
}

// Download is a fetched PDF ready to be served.
type Download struct {
	PaperUUID string
	Content   []byte
	Degraded  []string
}

// Image is a fetched thumbnail, or the placeholder when Placeholder is set.
type Image struct {
	Content     []byte
	ContentType string
	Placeholder bool
}

// HealthView reports reachability of every downstream service.
type HealthView struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}
