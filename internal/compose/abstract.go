package compose

import (
	"strings"

	"docfront/internal/model"
)

// abstractWindow caps the preview length in runes.
const abstractWindow = 400

var (
	abstractMarkers = []string{"概要：", "概要:"}
	// sectionMarkers end the abstract when they follow it.
	sectionMarkers = []string{
		"キーワード：", "キーワード:",
		"Keywords:", "Keywords：", "Key words:",
		"1. はじめに", "1.はじめに", "１．はじめに", "1 はじめに",
		"1. 序論", "1.序論", "１．序論",
	}
)

// ExtractAbstract returns the abstract preview found on page 0 of hits: the
// text after "概要：" up to the next section heading, capped at abstractWindow
// runes including the trailing "…". It returns "" when page 0 or the marker is
// missing.
func ExtractAbstract(hits []model.FulltextHit) string {
	var page string
	found := false
	for _, h := range hits {
		if h.PageNumber == 0 {
			page, found = h.Text, true
			break
		}
	}
	if !found {
		return ""
	}

	at, width := -1, 0
	for _, m := range abstractMarkers {
		if i := strings.Index(page, m); i >= 0 && (at < 0 || i < at) {
			at, width = i, len(m)
		}
	}
	if at < 0 {
		return ""
	}
	rest := page[at+width:]

	end := len(rest)
	for _, m := range sectionMarkers {
		if i := strings.Index(rest, m); i >= 0 && i < end {
			end = i
		}
	}
	text := strings.Join(strings.Fields(rest[:end]), " ")

	runes := []rune(text)
	if len(runes) > abstractWindow {
		return strings.TrimSpace(string(runes[:abstractWindow-1])) + "…"
	}
	return text
}
