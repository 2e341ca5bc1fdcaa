package service

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"docfront/internal/compose"
	"docfront/internal/downstream"
	"docfront/internal/fanout"
	"docfront/internal/model"
)

var (
	// ErrNotFound reports a resource the front must not show, such as a non-public paper.
	ErrNotFound = errors.New("not found")
)

// Fetch names, used as fan-out result keys, log fields and metric labels.
const (
	fetchPapers         = "papers"
	fetchAuthors        = "authors"
	fetchFulltextSearch = "fulltext-search"
	fetchAuthorSearch   = "author-search"
	fetchStats          = "stats"
	fetchPaper          = "paper"
	fetchThumbnails     = "thumbnails"
	fetchFulltext       = "fulltext"
	fetchPaperStats     = "paper-stats"
	fetchAuthor         = "author"
	fetchPDF            = "pdf"
	fetchRecordDownload = "stats-record"
	fetchImage          = "thumbnail"
)

const (
	healthUp   = "up"
	healthDown = "down"
)

// FrontService defines the page compositions served by the front.
//
// Every method issues its downstream calls through one fan-out batch. A failed
// required call surfaces as *fanout.RequiredError; failed optional calls
// degrade the matching view field to empty/zero.
type FrontService interface {
	// Home lists papers grouped by creation month; with a keyword it merges
	// title and fulltext matches and lists matching authors separately.
	// An invalid keyword yields compose.ErrInvalidKeyword before any fetch.
	Home(ctx context.Context, keyword string) (*model.HomeView, error)

	// PaperDetail returns one paper with abstract preview, thumbnails and BibTeX.
	PaperDetail(ctx context.Context, id string) (*model.PaperDetailView, error)

	// Download fetches the PDF while recording the download event best-effort.
	Download(ctx context.Context, id, clientIP string) (*model.Download, error)

	// AuthorDetail returns an author and the public papers listing them.
	AuthorDetail(ctx context.Context, id string) (*model.AuthorDetailView, error)

	// Thumbnail passes one image through, substituting a placeholder on downstream 404.
	Thumbnail(ctx context.Context, paperID string, image model.ImageID) (*model.Image, error)

	// Health pings every downstream service.
	Health(ctx context.Context) (*model.HealthView, error)
}

// Options tune a FrontService.
type Options struct {
	// Keyword is the allow-list of the home/search route.
	Keyword compose.KeywordPolicy
	// Location is used for date labels and month buckets. Defaults to UTC.
	Location *time.Location
	// Now stamps download events. Defaults to time.Now.
	Now func() time.Time
}

// frontService is a concrete implementation of FrontService.
type frontService struct {
	api     downstream.API
	exec    *fanout.Executor
	keyword compose.KeywordPolicy
	loc     *time.Location
	now     func() time.Time
}

// NewFrontService constructs a new FrontService.
func NewFrontService(api downstream.API, exec *fanout.Executor, opts Options) FrontService {
	s := &frontService{api: api, exec: exec, keyword: opts.Keyword, loc: opts.Location, now: opts.Now}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func call[T any](f func(context.Context) (T, error)) fanout.Call {
	return func(ctx context.Context) (any, error) {
		v, err := f(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func call1[A, T any](f func(context.Context, A) (T, error), a A) fanout.Call {
	return func(ctx context.Context) (any, error) {
		v, err := f(ctx, a)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func (s *frontService) Home(ctx context.Context, keyword string) (*model.HomeView, error) {
	kw, err := s.keyword.Sanitize(keyword)
	if err != nil {
		return nil, err
	}

	specs := []fanout.Spec{
		{Name: fetchPapers, Target: "GET /paper", Required: true, Call: call(s.api.Papers)},
		{Name: fetchAuthors, Target: "GET /author", Required: true, Call: call(s.api.Authors)},
	}
	if kw != "" {
		specs = append(specs,
			fanout.Spec{Name: fetchFulltextSearch, Target: "GET /fulltext?keyword=", Call: call1(s.api.SearchFulltext, kw)},
			fanout.Spec{Name: fetchAuthorSearch, Target: "GET /author?name=", Call: call1(s.api.SearchAuthors, kw)},
		)
	}
	specs = append(specs, fanout.Spec{Name: fetchStats, Target: "GET /stats", Call: call(s.api.Stats)})

	res, err := s.exec.Run(ctx, specs)
	if err != nil {
		return nil, err
	}

	papers, _ := fanout.Get[[]model.Paper](res, fetchPapers)
	authors, _ := fanout.Get[[]model.Author](res, fetchAuthors)
	hits, _ := fanout.Get[[]model.FulltextHit](res, fetchFulltextSearch)
	found, _ := fanout.Get[[]model.Author](res, fetchAuthorSearch)
	stats, _ := fanout.Get[[]model.StatsCount](res, fetchStats)

	idx := compose.IndexAuthors(authors)
	downloads := compose.IndexDownloads(stats)

	matches := compose.MergeSearch(kw, compose.PublicPapers(papers), hits)
	views := make([]model.PaperView, 0, len(matches))
	for _, m := range matches {
		views = append(views, compose.BuildPaperView(m.Paper, idx, downloads.Count(m.Paper.UUID), m.Highlights, s.loc))
	}

	return &model.HomeView{
		Keyword:        kw,
		Groups:         compose.BucketByMonth(views, s.loc),
		MatchedAuthors: compose.MatchAuthors(kw, found),
		Degraded:       res.Degraded(),
	}, nil
}

func (s *frontService) PaperDetail(ctx context.Context, id string) (*model.PaperDetailView, error) {
	res, err := s.exec.Run(ctx, []fanout.Spec{
		{Name: fetchAuthors, Target: "GET /author", Required: true, Call: call(s.api.Authors)},
		{Name: fetchPaper, Target: "GET /paper/{uuid}", Required: true, Call: call1(s.api.Paper, id)},
		{Name: fetchThumbnails, Target: "GET /thumbnail/{uuid}", Call: call1(s.api.Thumbnails, id)},
		{Name: fetchFulltext, Target: "GET /fulltext/{uuid}", Call: call1(s.api.Fulltext, id)},
		{Name: fetchPaperStats, Target: "GET /stats/{uuid}", Call: call1(s.api.PaperStats, id)},
	})
	if err != nil {
		return nil, err
	}

	paper, _ := fanout.Get[model.Paper](res, fetchPaper)
	if !paper.IsPublic {
		return nil, ErrNotFound
	}
	authors, _ := fanout.Get[[]model.Author](res, fetchAuthors)
	images, _ := fanout.Get[[]model.ImageID](res, fetchThumbnails)
	pages, _ := fanout.Get[[]model.FulltextHit](res, fetchFulltext)
	stats, _ := fanout.Get[model.StatsCount](res, fetchPaperStats)

	view := compose.BuildPaperView(paper, compose.IndexAuthors(authors), stats.TotalDownloads, nil, s.loc)

	return &model.PaperDetailView{
		Paper:      view,
		UpdatedAt:  compose.FormatDate(paper.UpdatedAt.Time, s.loc),
		Abstract:   compose.ExtractAbstract(pages),
		Thumbnails: thumbnailURLs(paper.UUID, images),
		BibTeX:     compose.RenderBibTeX(view, s.loc),
		Degraded:   res.Degraded(),
	}, nil
}

// thumbnailURLs builds the front's passthrough URLs for images.
func thumbnailURLs(paperID string, images []model.ImageID) []string {
	urls := make([]string, len(images))
	for i, img := range images {
		urls[i] = "/thumbnail/" + url.PathEscape(paperID) + "/" + url.PathEscape(string(img))
	}
	return urls
}

func (s *frontService) Download(ctx context.Context, id, clientIP string) (*model.Download, error) {
	ev := model.DownloadEvent{
		PaperUUID: id,
		IPv4Addr:  ipv4OrZero(clientIP),
		Timestamp: model.Timestamp{Time: s.now().UTC()},
	}

	res, err := s.exec.Run(ctx, []fanout.Spec{
		{Name: fetchRecordDownload, Target: "POST /stats", Call: func(ctx context.Context) (any, error) {
			return nil, s.api.RecordDownload(ctx, ev)
		}},
		{Name: fetchPDF, Target: "GET /paper/{uuid}/download", Required: true, Call: call1(s.api.PaperPDF, id)},
	})
	if err != nil {
		return nil, err
	}

	pdf, _ := fanout.Get[[]byte](res, fetchPDF)
	return &model.Download{PaperUUID: id, Content: pdf, Degraded: res.Degraded()}, nil
}

// ipv4OrZero returns ip when it is an IPv4 address (including v4-mapped v6), else 0.0.0.0.
func ipv4OrZero(ip string) string {
	if v4 := net.ParseIP(ip).To4(); v4 != nil {
		return v4.String()
	}
	return "0.0.0.0"
}

func (s *frontService) AuthorDetail(ctx context.Context, id string) (*model.AuthorDetailView, error) {
	res, err := s.exec.Run(ctx, []fanout.Spec{
		{Name: fetchPapers, Target: "GET /paper", Required: true, Call: call(s.api.Papers)},
		{Name: fetchAuthors, Target: "GET /author", Required: true, Call: call(s.api.Authors)},
		{Name: fetchAuthor, Target: "GET /author/{uuid}", Required: true, Call: call1(s.api.Author, id)},
	})
	if err != nil {
		return nil, err
	}

	papers, _ := fanout.Get[[]model.Paper](res, fetchPapers)
	authors, _ := fanout.Get[[]model.Author](res, fetchAuthors)
	me, _ := fanout.Get[model.Author](res, fetchAuthor)

	idx := compose.IndexAuthors(authors)
	own := compose.PapersByAuthor(papers, id)
	views := make([]model.PaperView, 0, len(own))
	for _, p := range own {
		views = append(views, compose.BuildPaperView(p, idx, 0, nil, s.loc))
	}

	return &model.AuthorDetailView{
		Author: compose.SummarizeAuthor(me),
		Papers: views,
	}, nil
}

func (s *frontService) Thumbnail(ctx context.Context, paperID string, image model.ImageID) (*model.Image, error) {
	res, err := s.exec.Run(ctx, []fanout.Spec{{
		Name:     fetchImage,
		Target:   "GET /thumbnail/{uuid}/{id}",
		Required: true,
		Call: func(ctx context.Context) (any, error) {
			b, err := s.api.Thumbnail(ctx, paperID, image)
			if err != nil {
				return nil, err
			}
			return b, nil
		},
	}})
	if err != nil {
		var re *fanout.RequiredError
		if errors.As(err, &re) && downstream.IsNotFound(re.Err) {
			return &model.Image{Content: placeholderPNG(), ContentType: "image/png", Placeholder: true}, nil
		}
		return nil, err
	}

	b, _ := fanout.Get[[]byte](res, fetchImage)
	return &model.Image{Content: b, ContentType: "image/png"}, nil
}

func (s *frontService) Health(ctx context.Context) (*model.HealthView, error) {
	services := downstream.Services()
	specs := make([]fanout.Spec, len(services))
	for i, svc := range services {
		specs[i] = fanout.Spec{
			Name:   string(svc),
			Target: "GET /healthz",
			Call: func(ctx context.Context) (any, error) {
				return nil, s.api.Ping(ctx, svc)
			},
		}
	}

	res, err := s.exec.Run(ctx, specs)
	if err != nil {
		return nil, err
	}

	view := &model.HealthView{Status: "healthy", Services: make(map[string]string, len(res))}
	for _, r := range res {
		view.Services[r.Name] = healthUp
		if r.Absent() {
			view.Services[r.Name] = healthDown
			view.Status = "unhealthy"
		}
	}
	return view, nil
}
