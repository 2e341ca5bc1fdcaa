package service

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net/http"
	"testing"
	"time"

	"docfront/internal/compose"
	"docfront/internal/downstream"
	apiMocks "docfront/internal/downstream/mocks"
	"docfront/internal/fanout"
	"docfront/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	paperID  = "3f1c9a0e-1111-4c2b-9d3e-000000000001"
	hiddenID = "3f1c9a0e-1111-4c2b-9d3e-000000000002"
	authorA  = "a0000000-0000-4000-8000-00000000000a"
	authorB  = "b0000000-0000-4000-8000-00000000000b"
)

var (
	tokyo = time.FixedZone("JST", 9*60*60)

	errDown = errors.New("connection refused")

	testAuthors = []model.Author{
		{UUID: authorA, LastNameJa: "山田", FirstNameJa: "太郎", LastNameEn: "Yamada", FirstNameEn: "Taro", JoinedYear: 2020},
		{UUID: authorB, LastNameJa: "佐藤", FirstNameJa: "花子", JoinedYear: 2019, IsGraduated: true},
	}

	testPapers = []model.Paper{
		{
			UUID:       paperID,
			Title:      "クラウド基盤の設計",
			Label:      "B4",
			AuthorUUID: []string{authorA, authorB},
			CreatedAt:  ts("2024-06-01T00:00:00Z"),
			UpdatedAt:  ts("2024-06-10T00:00:00Z"),
			IsPublic:   true,
		},
		{
			UUID:       hiddenID,
			Title:      "クラウド下書き",
			AuthorUUID: []string{authorA},
			CreatedAt:  ts("2024-07-01T00:00:00Z"),
		},
	}
)

func ts(s string) model.Timestamp {
	t, err := model.ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestService(api downstream.API) *frontService {
	exec := fanout.New(time.Second)
	return NewFrontService(api, exec, Options{
		Keyword:  compose.KeywordPolicy{AllowSpace: true},
		Location: tokyo,
		Now:      func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	}).(*frontService)
}

func TestFrontService_Home(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		keyword    string
		setupMocks func(m *apiMocks.MockAPI)
		wantErr    error
		wantStatus int
		checkRes   func(t *testing.T, m *apiMocks.MockAPI, res *model.HomeView)
	}{
		{
			name: "listing without keyword skips search fetches",
			setupMocks: func(m *apiMocks.MockAPI) {
				m.On("Papers", mock.Anything).Return(testPapers, nil)
				m.On("Authors", mock.Anything).Return(testAuthors, nil)
				m.On("Stats", mock.Anything).Return([]model.StatsCount{{PaperUUID: paperID, TotalDownloads: 7}}, nil)
			},
			checkRes: func(t *testing.T, m *apiMocks.MockAPI, res *model.HomeView) {
				m.AssertNotCalled(t, "SearchFulltext", mock.Anything, mock.Anything)
				m.AssertNotCalled(t, "SearchAuthors", mock.Anything, mock.Anything)
				require.Len(t, res.Groups, 1)
				assert.Equal(t, "2024-06", res.Groups[0].Key)
				require.Len(t, res.Groups[0].Papers, 1)
				p := res.Groups[0].Papers[0]
				assert.Equal(t, []string{"山田 太郎", "佐藤 花子"}, p.AuthorNames)
				assert.Equal(t, 7, p.Downloads)
				assert.Equal(t, "2024/06/01", p.CreatedAt)
				assert.Empty(t, res.MatchedAuthors)
				assert.Nil(t, res.Degraded)
			},
		},
		{
			name:    "unreachable stats degrades downloads to zero",
			keyword: "",
			setupMocks: func(m *apiMocks.MockAPI) {
				m.On("Papers", mock.Anything).Return(testPapers, nil)
				m.On("Authors", mock.Anything).Return(testAuthors, nil)
				m.On("Stats", mock.Anything).Return(nil, errDown)
			},
			checkRes: func(t *testing.T, m *apiMocks.MockAPI, res *model.HomeView) {
				require.Len(t, res.Groups, 1)
				assert.Equal(t, 0, res.Groups[0].Papers[0].Downloads)
				assert.Equal(t, []string{fetchStats}, res.Degraded)
			},
		},
		{
			name:    "keyword merges title and fulltext matches",
			keyword: "クラウド",
			setupMocks: func(m *apiMocks.MockAPI) {
				m.On("Papers", mock.Anything).Return(testPapers, nil)
				m.On("Authors", mock.Anything).Return(testAuthors, nil)
				m.On("Stats", mock.Anything).Return([]model.StatsCount{}, nil)
				m.On("SearchFulltext", mock.Anything, "クラウド").Return([]model.FulltextHit{
					{PaperUUID: paperID, PageNumber: 2, Highlight: model.Highlights{"<em>クラウド</em>上"}},
					{PaperUUID: hiddenID, PageNumber: 0, Highlight: model.Highlights{"hidden"}},
				}, nil)
				m.On("SearchAuthors", mock.Anything, "クラウド").Return([]model.Author{}, nil)
			},
			checkRes: func(t *testing.T, m *apiMocks.MockAPI, res *model.HomeView) {
				assert.Equal(t, "クラウド", res.Keyword)
				require.Len(t, res.Groups, 1)
				require.Len(t, res.Groups[0].Papers, 1)
				assert.Equal(t, paperID, res.Groups[0].Papers[0].UUID)
				assert.Equal(t, []string{"<em>クラウド</em>上"}, res.Groups[0].Papers[0].Highlights)
			},
		},
		{
			name:    "author search lists matched authors",
			keyword: "山田",
			setupMocks: func(m *apiMocks.MockAPI) {
				m.On("Papers", mock.Anything).Return(testPapers, nil)
				m.On("Authors", mock.Anything).Return(testAuthors, nil)
				m.On("Stats", mock.Anything).Return([]model.StatsCount{}, nil)
				m.On("SearchFulltext", mock.Anything, "山田").Return([]model.FulltextHit{}, nil)
				m.On("SearchAuthors", mock.Anything, "山田").Return(testAuthors[:1], nil)
			},
			checkRes: func(t *testing.T, m *apiMocks.MockAPI, res *model.HomeView) {
				assert.Empty(t, res.Groups)
				require.Len(t, res.MatchedAuthors, 1)
				assert.Equal(t, "山田 太郎", res.MatchedAuthors[0].Name)
				assert.Equal(t, "在学", res.MatchedAuthors[0].Status)
			},
		},
		{
			name:       "invalid keyword rejected before any fetch",
			keyword:    "cloud;drop",
			setupMocks: func(m *apiMocks.MockAPI) {},
			wantErr:    compose.ErrInvalidKeyword,
		},
		{
			name:    "unreachable paper service fails the request",
			keyword: "",
			setupMocks: func(m *apiMocks.MockAPI) {
				m.On("Papers", mock.Anything).Return(nil, errDown)
				m.On("Authors", mock.Anything).Return(testAuthors, nil).Maybe()
				m.On("Stats", mock.Anything).Return([]model.StatsCount{}, nil).Maybe()
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(apiMocks.MockAPI)
			svc := newTestService(m)
			tt.setupMocks(m)

			res, err := svc.Home(ctx, tt.keyword)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			case tt.wantStatus != 0:
				var re *fanout.RequiredError
				require.ErrorAs(t, err, &re)
				assert.Equal(t, tt.wantStatus, re.StatusCode())
			default:
				require.NoError(t, err)
				tt.checkRes(t, m, res)
			}
			m.AssertExpectations(t)
		})
	}
}

func TestFrontService_PaperDetail(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown authors dropped and optional failures degrade", func(t *testing.T) {
		m := new(apiMocks.MockAPI)
		m.On("Authors", mock.Anything).Return(testAuthors[:1], nil)
		m.On("Paper", mock.Anything, paperID).Return(testPapers[0], nil)
		m.On("Thumbnails", mock.Anything, paperID).Return([]model.ImageID{"0", "1"}, nil)
		m.On("Fulltext", mock.Anything, paperID).Return([]model.FulltextHit{
			{PaperUUID: paperID, PageNumber: 0, Text: "表題のみ"},
		}, nil)
		m.On("PaperStats", mock.Anything, paperID).Return(model.StatsCount{}, errDown)

		res, err := newTestService(m).PaperDetail(ctx, paperID)
		require.NoError(t, err)

		assert.Equal(t, []string{"山田 太郎"}, res.Paper.AuthorNames)
		assert.Equal(t, 0, res.Paper.Downloads)
		assert.Equal(t, "", res.Abstract)
		assert.Equal(t, "2024/06/10", res.UpdatedAt)
		assert.Equal(t, []string{
			"/thumbnail/" + paperID + "/0",
			"/thumbnail/" + paperID + "/1",
		}, res.Thumbnails)
		assert.Contains(t, res.BibTeX, "author = {山田 太郎}")
		assert.Equal(t, []string{fetchPaperStats}, res.Degraded)
		m.AssertExpectations(t)
	})

	t.Run("unreachable fulltext leaves abstract empty", func(t *testing.T) {
		m := new(apiMocks.MockAPI)
		m.On("Authors", mock.Anything).Return(testAuthors, nil)
		m.On("Paper", mock.Anything, paperID).Return(testPapers[0], nil)
		m.On("Thumbnails", mock.Anything, paperID).Return(nil, errDown)
		m.On("Fulltext", mock.Anything, paperID).Return(nil, errDown)
		m.On("PaperStats", mock.Anything, paperID).Return(model.StatsCount{PaperUUID: paperID, TotalDownloads: 1}, nil)

		res, err := newTestService(m).PaperDetail(ctx, paperID)
		require.NoError(t, err)

		assert.Equal(t, "", res.Abstract)
		assert.Empty(t, res.Thumbnails)
		assert.Equal(t, 1, res.Paper.Downloads)
		assert.Equal(t, []string{fetchThumbnails, fetchFulltext}, res.Degraded)
	})

	t.Run("abstract and downloads from optional fetches", func(t *testing.T) {
		m := new(apiMocks.MockAPI)
		m.On("Authors", mock.Anything).Return(testAuthors, nil)
		m.On("Paper", mock.Anything, paperID).Return(testPapers[0], nil)
		m.On("Thumbnails", mock.Anything, paperID).Return([]model.ImageID{}, nil)
		m.On("Fulltext", mock.Anything, paperID).Return([]model.FulltextHit{
			{PaperUUID: paperID, PageNumber: 1, Text: "本文"},
			{PaperUUID: paperID, PageNumber: 0, Text: "表題\n概要：クラウドの研究。\nキーワード：クラウド"},
		}, nil)
		m.On("PaperStats", mock.Anything, paperID).Return(model.StatsCount{PaperUUID: paperID, TotalDownloads: 3}, nil)

		res, err := newTestService(m).PaperDetail(ctx, paperID)
		require.NoError(t, err)

		assert.Equal(t, "クラウドの研究。", res.Abstract)
		assert.Equal(t, 3, res.Paper.Downloads)
		assert.Empty(t, res.Thumbnails)
		assert.Nil(t, res.Degraded)
	})

	t.Run("missing paper maps to 404", func(t *testing.T) {
		m := new(apiMocks.MockAPI)
		m.On("Authors", mock.Anything).Return(testAuthors, nil).Maybe()
		m.On("Paper", mock.Anything, paperID).Return(model.Paper{}, &downstream.StatusError{
			Service: downstream.ServicePaper, StatusCode: http.StatusNotFound,
		})
		m.On("Thumbnails", mock.Anything, paperID).Return(nil, errDown).Maybe()
		m.On("Fulltext", mock.Anything, paperID).Return(nil, errDown).Maybe()
		m.On("PaperStats", mock.Anything, paperID).Return(model.StatsCount{}, errDown).Maybe()

		res, err := newTestService(m).PaperDetail(ctx, paperID)
		assert.Nil(t, res)
		var re *fanout.RequiredError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, http.StatusNotFound, re.StatusCode())
	})

	t.Run("non-public paper is not found", func(t *testing.T) {
		m := new(apiMocks.MockAPI)
		m.On("Authors", mock.Anything).Return(testAuthors, nil)
		m.On("Paper", mock.Anything, hiddenID).Return(testPapers[1], nil)
		m.On("Thumbnails", mock.Anything, hiddenID).Return([]model.ImageID{}, nil)
		m.On("Fulltext", mock.Anything, hiddenID).Return([]model.FulltextHit{}, nil)
		m.On("PaperStats", mock.Anything, hiddenID).Return(model.StatsCount{}, nil)

		_, err := newTestService(m).PaperDetail(ctx, hiddenID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFrontService_Download(t *testing.T) {
	ctx := context.Background()
	pdf := []byte("%PDF-1.7 test")

	tests := []struct {
		name         string
		clientIP     string
		recordErr    error
		pdfErr       error
		wantIP       string
		wantDegraded []string
		wantStatus   int
	}{
		{name: "records event and returns pdf", clientIP: "192.0.2.10", wantIP: "192.0.2.10"},
		{name: "stats failure still returns pdf", clientIP: "192.0.2.10", recordErr: errDown, wantIP: "192.0.2.10", wantDegraded: []string{fetchRecordDownload}},
		{name: "ipv6 client recorded as zero address", clientIP: "2001:db8::1", wantIP: "0.0.0.0"},
		{name: "v4-mapped client unwrapped", clientIP: "::ffff:198.51.100.7", wantIP: "198.51.100.7"},
		{name: "missing pdf maps to 404", clientIP: "192.0.2.10", wantIP: "192.0.2.10",
			pdfErr: &downstream.StatusError{Service: downstream.ServicePaper, StatusCode: http.StatusNotFound}, wantStatus: http.StatusNotFound},
		{name: "paper service down maps to 503", clientIP: "192.0.2.10", wantIP: "192.0.2.10",
			pdfErr: errDown, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(apiMocks.MockAPI)
			m.On("RecordDownload", mock.Anything, mock.MatchedBy(func(ev model.DownloadEvent) bool {
				return ev.PaperUUID == paperID && ev.IPv4Addr == tt.wantIP &&
					ev.Timestamp.Equal(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
			})).Return(tt.recordErr).Maybe()
			if tt.pdfErr != nil {
				m.On("PaperPDF", mock.Anything, paperID).Return(nil, tt.pdfErr)
			} else {
				m.On("PaperPDF", mock.Anything, paperID).Return(pdf, nil)
			}

			res, err := newTestService(m).Download(ctx, paperID, tt.clientIP)

			if tt.wantStatus != 0 {
				var re *fanout.RequiredError
				require.ErrorAs(t, err, &re)
				assert.Equal(t, tt.wantStatus, re.StatusCode())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, pdf, res.Content)
			assert.Equal(t, paperID, res.PaperUUID)
			assert.Equal(t, tt.wantDegraded, res.Degraded)
			m.AssertExpectations(t)
		})
	}
}

func TestFrontService_AuthorDetail(t *testing.T) {
	ctx := context.Background()

	t.Run("lists public papers of the author", func(t *testing.T) {
		m := new(apiMocks.MockAPI)
		m.On("Papers", mock.Anything).Return(testPapers, nil)
		m.On("Authors", mock.Anything).Return(testAuthors, nil)
		m.On("Author", mock.Anything, authorB).Return(testAuthors[1], nil)

		res, err := newTestService(m).AuthorDetail(ctx, authorB)
		require.NoError(t, err)

		assert.Equal(t, "佐藤 花子", res.Author.Name)
		assert.Equal(t, "既卒", res.Author.Status)
		require.Len(t, res.Papers, 1)
		assert.Equal(t, paperID, res.Papers[0].UUID)
		assert.Equal(t, []string{"山田 太郎", "佐藤 花子"}, res.Papers[0].AuthorNames)
		m.AssertExpectations(t)
	})

	t.Run("unknown author maps to 404", func(t *testing.T) {
		m := new(apiMocks.MockAPI)
		m.On("Papers", mock.Anything).Return(testPapers, nil).Maybe()
		m.On("Authors", mock.Anything).Return(testAuthors, nil).Maybe()
		m.On("Author", mock.Anything, authorA).Return(model.Author{}, &downstream.StatusError{
			Service: downstream.ServiceAuthor, StatusCode: http.StatusNotFound,
		})

		_, err := newTestService(m).AuthorDetail(ctx, authorA)
		var re *fanout.RequiredError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, http.StatusNotFound, re.StatusCode())
	})
}

func TestFrontService_Thumbnail(t *testing.T) {
	ctx := context.Background()

	t.Run("passes image through", func(t *testing.T) {
		m := new(apiMocks.MockAPI)
		m.On("Thumbnail", mock.Anything, paperID, model.ImageID("0")).Return([]byte("png-bytes"), nil)

		img, err := newTestService(m).Thumbnail(ctx, paperID, "0")
		require.NoError(t, err)
		assert.Equal(t, []byte("png-bytes"), img.Content)
		assert.Equal(t, "image/png", img.ContentType)
		assert.False(t, img.Placeholder)
	})

	t.Run("missing image falls back to placeholder", func(t *testing.T) {
		m := new(apiMocks.MockAPI)
		m.On("Thumbnail", mock.Anything, paperID, model.ImageID("9")).Return(nil, &downstream.StatusError{
			Service: downstream.ServiceThumbnail, StatusCode: http.StatusNotFound,
		})

		img, err := newTestService(m).Thumbnail(ctx, paperID, "9")
		require.NoError(t, err)
		assert.True(t, img.Placeholder)

		decoded, err := png.Decode(bytes.NewReader(img.Content))
		require.NoError(t, err)
		assert.Equal(t, placeholderWidth, decoded.Bounds().Dx())
		assert.Equal(t, placeholderHeight, decoded.Bounds().Dy())
	})

	t.Run("thumbnail service down fails", func(t *testing.T) {
		m := new(apiMocks.MockAPI)
		m.On("Thumbnail", mock.Anything, paperID, model.ImageID("0")).Return(nil, errDown)

		_, err := newTestService(m).Thumbnail(ctx, paperID, "0")
		var re *fanout.RequiredError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, http.StatusServiceUnavailable, re.StatusCode())
	})
}

func TestFrontService_Health(t *testing.T) {
	ctx := context.Background()

	t.Run("all services up", func(t *testing.T) {
		m := new(apiMocks.MockAPI)
		m.On("Ping", mock.Anything, mock.Anything).Return(nil)

		res, err := newTestService(m).Health(ctx)
		require.NoError(t, err)
		assert.Equal(t, "healthy", res.Status)
		assert.Len(t, res.Services, len(downstream.Services()))
		m.AssertNumberOfCalls(t, "Ping", len(downstream.Services()))
	})

	t.Run("one service down", func(t *testing.T) {
		m := new(apiMocks.MockAPI)
		m.On("Ping", mock.Anything, downstream.ServiceStats).Return(errDown)
		m.On("Ping", mock.Anything, mock.Anything).Return(nil)

		res, err := newTestService(m).Health(ctx)
		require.NoError(t, err)
		assert.Equal(t, "unhealthy", res.Status)
		assert.Equal(t, healthDown, res.Services[string(downstream.ServiceStats)])
		assert.Equal(t, healthUp, res.Services[string(downstream.ServicePaper)])
	})
}
