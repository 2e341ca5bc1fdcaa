package mocks

import (
	"context"

	"docfront/internal/downstream"
	"docfront/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockAPI struct {
	mock.Mock
}

var _ downstream.API = (*MockAPI)(nil)

func (m *MockAPI) Authors(ctx context.Context) ([]model.Author, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Author), args.Error(1)
}

func (m *MockAPI) Author(ctx context.Context, id string) (model.Author, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Author), args.Error(1)
}

func (m *MockAPI) SearchAuthors(ctx context.Context, name string) ([]model.Author, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Author), args.Error(1)
}

func (m *MockAPI) Papers(ctx context.Context) ([]model.Paper, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Paper), args.Error(1)
}

func (m *MockAPI) Paper(ctx context.Context, id string) (model.Paper, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Paper), args.Error(1)
}

func (m *MockAPI) PaperPDF(ctx context.Context, id string) ([]byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockAPI) Fulltext(ctx context.Context, id string) ([]model.FulltextHit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FulltextHit), args.Error(1)
}

func (m *MockAPI) SearchFulltext(ctx context.Context, keyword string) ([]model.FulltextHit, error) {
	args := m.Called(ctx, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FulltextHit), args.Error(1)
}

func (m *MockAPI) Stats(ctx context.Context) ([]model.StatsCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StatsCount), args.Error(1)
}

func (m *MockAPI) PaperStats(ctx context.Context, id string) (model.StatsCount, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.StatsCount), args.Error(1)
}

func (m *MockAPI) RecordDownload(ctx context.Context, ev model.DownloadEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockAPI) Thumbnails(ctx context.Context, id string) ([]model.ImageID, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ImageID), args.Error(1)
}

func (m *MockAPI) Thumbnail(ctx context.Context, id string, image model.ImageID) ([]byte, error) {
	args := m.Called(ctx, id, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockAPI) Ping(ctx context.Context, svc downstream.Service) error {
	args := m.Called(ctx, svc)
	return args.Error(0)
}
