package downstream

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"docfront/internal/model"
)

// API is the set of downstream operations consumed by the front.
type API interface {
	// Authors returns every author record (GET /author).
	Authors(ctx context.Context) ([]model.Author, error)
	// Author returns one author (GET /author/{uuid}).
	Author(ctx context.Context, id string) (model.Author, error)
	// SearchAuthors returns authors whose name contains name (GET /author?name=).
	SearchAuthors(ctx context.Context, name string) ([]model.Author, error)

	// Papers returns every paper (GET /paper).
	Papers(ctx context.Context) ([]model.Paper, error)
	// Paper returns one paper (GET /paper/{uuid}).
	Paper(ctx context.Context, id string) (model.Paper, error)
	// PaperPDF returns the raw PDF (GET /paper/{uuid}/download).
	PaperPDF(ctx context.Context, id string) ([]byte, error)

	// Fulltext returns the indexed pages of one paper (GET /fulltext/{uuid}).
	Fulltext(ctx context.Context, id string) ([]model.FulltextHit, error)
	// SearchFulltext returns highlighted hits for keyword (GET /fulltext?keyword=).
	SearchFulltext(ctx context.Context, keyword string) ([]model.FulltextHit, error)

	// Stats returns download counts of all papers (GET /stats).
	Stats(ctx context.Context) ([]model.StatsCount, error)
	// PaperStats returns the download count of one paper (GET /stats/{uuid}).
	PaperStats(ctx context.Context, id string) (model.StatsCount, error)
	// RecordDownload posts one download event (POST /stats).
	RecordDownload(ctx context.Context, ev model.DownloadEvent) error

	// Thumbnails lists the extracted image ids of one paper (GET /thumbnail/{uuid}).
	Thumbnails(ctx context.Context, id string) ([]model.ImageID, error)
	// Thumbnail returns one PNG (GET /thumbnail/{uuid}/{id}).
	Thumbnail(ctx context.Context, id string, image model.ImageID) ([]byte, error)

	// Ping checks the liveness endpoint of svc (GET /healthz).
	Ping(ctx context.Context, svc Service) error
}

func (c *Client) Authors(ctx context.Context) ([]model.Author, error) {
	var out []model.Author
	if err := c.getJSON(ctx, ServiceAuthor, c.URL(ServiceAuthor, "/author", nil), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Author(ctx context.Context, id string) (model.Author, error) {
	var out model.Author
	err := c.getJSON(ctx, ServiceAuthor, c.URL(ServiceAuthor, "/author/"+url.PathEscape(id), nil), &out)
	return out, err
}

func (c *Client) SearchAuthors(ctx context.Context, name string) ([]model.Author, error) {
	var out []model.Author
	u := c.URL(ServiceAuthor, "/author", url.Values{"name": {name}})
	if err := c.getJSON(ctx, ServiceAuthor, u, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Papers(ctx context.Context) ([]model.Paper, error) {
	var out model.PaperList
	if err := c.getJSON(ctx, ServicePaper, c.URL(ServicePaper, "/paper", nil), &out); err != nil {
		return nil, err
	}
	return out.Papers, nil
}

func (c *Client) Paper(ctx context.Context, id string) (model.Paper, error) {
	var out model.Paper
	err := c.getJSON(ctx, ServicePaper, c.URL(ServicePaper, "/paper/"+url.PathEscape(id), nil), &out)
	return out, err
}

func (c *Client) PaperPDF(ctx context.Context, id string) ([]byte, error) {
	return c.getBytes(ctx, ServicePaper, c.URL(ServicePaper, "/paper/"+url.PathEscape(id)+"/download", nil))
}

func (c *Client) Fulltext(ctx context.Context, id string) ([]model.FulltextHit, error) {
	var out model.FulltextList
	if err := c.getJSON(ctx, ServiceFulltext, c.URL(ServiceFulltext, "/fulltext/"+url.PathEscape(id), nil), &out); err != nil {
		return nil, err
	}
	return out.Fulltexts, nil
}

func (c *Client) SearchFulltext(ctx context.Context, keyword string) ([]model.FulltextHit, error) {
	var out model.FulltextList
	u := c.URL(ServiceFulltext, "/fulltext", url.Values{"keyword": {keyword}})
	if err := c.getJSON(ctx, ServiceFulltext, u, &out); err != nil {
		return nil, err
	}
	return out.Fulltexts, nil
}

func (c *Client) Stats(ctx context.Context) ([]model.StatsCount, error) {
	var out model.StatsList
	if err := c.getJSON(ctx, ServiceStats, c.URL(ServiceStats, "/stats", nil), &out); err != nil {
		return nil, err
	}
	return out.Stats, nil
}

func (c *Client) PaperStats(ctx context.Context, id string) (model.StatsCount, error) {
	var out model.StatsCount
	err := c.getJSON(ctx, ServiceStats, c.URL(ServiceStats, "/stats/"+url.PathEscape(id), nil), &out)
	return out, err
}

func (c *Client) RecordDownload(ctx context.Context, ev model.DownloadEvent) error {
	var ack model.StatusResponse
	return c.postJSON(ctx, ServiceStats, c.URL(ServiceStats, "/stats", nil), ev, &ack)
}

func (c *Client) Thumbnails(ctx context.Context, id string) ([]model.ImageID, error) {
	var out model.ThumbnailList
	if err := c.getJSON(ctx, ServiceThumbnail, c.URL(ServiceThumbnail, "/thumbnail/"+url.PathEscape(id), nil), &out); err != nil {
		return nil, err
	}
	return out.Images, nil
}

func (c *Client) Thumbnail(ctx context.Context, id string, image model.ImageID) ([]byte, error) {
	path := "/thumbnail/" + url.PathEscape(id) + "/" + url.PathEscape(string(image))
	return c.getBytes(ctx, ServiceThumbnail, c.URL(ServiceThumbnail, path, nil))
}

// Ping only checks for a 2xx; liveness bodies differ between services.
func (c *Client) Ping(ctx context.Context, svc Service) error {
	resp, err := c.do(ctx, svc, http.MethodGet, c.URL(svc, "/healthz", nil), nil)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.Body.Close()
}
