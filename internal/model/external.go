package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Paper is the metadata record owned by the paper service.
type Paper struct {
	UUID       string    `json:"uuid"`
	Title      string    `json:"title"`
	Label      string    `json:"label"`
	AuthorUUID []string  `json:"author_uuid"`
	CreatedAt  Timestamp `json:"created_at"`
	UpdatedAt  Timestamp `json:"updated_at"`
	IsPublic   bool      `json:"is_public"`
}

// PaperList is the envelope returned by GET /paper.
type PaperList struct {
	Papers []Paper `json:"papers"`
}

// Author is the record owned by the author service.
type Author struct {
	UUID         string    `json:"uuid"`
	FirstNameJa  string    `json:"first_name_ja"`
	MiddleNameJa string    `json:"middle_name_ja"`
	LastNameJa   string    `json:"last_name_ja"`
	FirstNameEn  string    `json:"first_name_en"`
	MiddleNameEn string    `json:"middle_name_en"`
	LastNameEn   string    `json:"last_name_en"`
	JoinedYear   int       `json:"joined_year"`
	IsGraduated  bool      `json:"is_graduated"`
	CreatedAt    Timestamp `json:"created_at"`
	UpdatedAt    Timestamp `json:"updated_at"`
}

// DisplayName is "last first" in Japanese order.
func (a Author) DisplayName() string {
	switch {
	case a.LastNameJa == "":
		return a.FirstNameJa
	case a.FirstNameJa == "":
		return a.LastNameJa
	}
	return a.LastNameJa + " " + a.FirstNameJa
}

// FulltextHit is one indexed page of a paper, optionally with search highlights.
type FulltextHit struct {
	PaperUUID  string     `json:"paper_uuid"`
	PageNumber int        `json:"page_number"`
	Text       string     `json:"text"`
	Highlight  Highlights `json:"highlight,omitempty"`
}

// FulltextList is the envelope returned by GET /fulltext and GET /fulltext/{uuid}.
type FulltextList struct {
	Fulltexts []FulltextHit `json:"fulltexts"`
}

// Highlights holds search engine excerpts. The fulltext service emits either a
// single string or an array of fragments.
type Highlights []string

// UnmarshalJSON accepts a string, an array of strings, or null.
func (h *Highlights) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*h = nil
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*h = nil
			return nil
		}
		*h = Highlights{s}
		return nil
	}
	var frags []string
	if err := json.Unmarshal(b, &frags); err != nil {
		return fmt.Errorf("highlight: %w", err)
	}
	*h = frags
	return nil
}

// StatsCount is the download aggregate for one paper.
type StatsCount struct {
	PaperUUID      string `json:"paper_uuid"`
	TotalDownloads int    `json:"total_downloads"`
}

// StatsList is the envelope returned by GET /stats.
type StatsList struct {
	Stats []StatsCount `json:"stats"`
}

// DownloadEvent is the body of POST /stats.
type DownloadEvent struct {
	PaperUUID string    `json:"paper_uuid"`
	IPv4Addr  string    `json:"ip_v4_addr"`
	Timestamp Timestamp `json:"timestamp"`
}

// StatusResponse is the generic acknowledgement of the backing services.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ThumbnailList is the envelope returned by GET /thumbnail/{uuid}.
type ThumbnailList struct {
	Images []ImageID `json:"images"`
}

// ImageID identifies one extracted page image. The thumbnail service emits
// either numbers or strings.
type ImageID string

// UnmarshalJSON accepts a JSON string or integer.
func (id *ImageID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ImageID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("image id: %w", err)
	}
	*id = ImageID(strconv.FormatInt(n, 10))
	return nil
}
