package compose

import (
	"sort"
	"time"

	"docfront/internal/model"
)

const (
	bucketKeyLayout   = "2006-01"
	bucketLabelLayout = "2006年01月"

	undatedKey   = "0000-00"
	undatedLabel = "日付不明"
)

// BucketByMonth groups views by creation year-month in loc. Groups are sorted
// by key, most recent first; papers inside a group are newest first. Papers
// without a creation time land in a trailing undated group.
func BucketByMonth(views []model.PaperView, loc *time.Location) []model.PaperGroup {
	byKey := make(map[string]*model.PaperGroup)
	var keys []string

	for _, v := range views {
		key, label := bucketOf(v.Created, loc)
		g, ok := byKey[key]
		if !ok {
			g = &model.PaperGroup{Key: key, Label: label}
			byKey[key] = g
			keys = append(keys, key)
		}
		g.Papers = append(g.Papers, v)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	groups := make([]model.PaperGroup, 0, len(keys))
	for _, k := range keys {
		g := byKey[k]
		sort.SliceStable(g.Papers, func(i, j int) bool {
			return g.Papers[i].Created.After(g.Papers[j].Created)
		})
		groups = append(groups, *g)
	}
	return groups
}

func bucketOf(t time.Time, loc *time.Location) (key, label string) {
	if t.IsZero() {
		return undatedKey, undatedLabel
	}
	t = t.In(loc)
	return t.Format(bucketKeyLayout), t.Format(bucketLabelLayout)
}
