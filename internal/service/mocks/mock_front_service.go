package mocks

import (
	"context"

	"docfront/internal/model"
	"docfront/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockFrontService struct {
	mock.Mock
}

var _ service.FrontService = (*MockFrontService)(nil)

func (m *MockFrontService) Home(ctx context.Context, keyword string) (*model.HomeView, error) {
	args := m.Called(ctx, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.HomeView), args.Error(1)
}

func (m *MockFrontService) PaperDetail(ctx context.Context, id string) (*model.PaperDetailView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaperDetailView), args.Error(1)
}

func (m *MockFrontService) Download(ctx context.Context, id, clientIP string) (*model.Download, error) {
	args := m.Called(ctx, id, clientIP)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Download), args.Error(1)
}

func (m *MockFrontService) AuthorDetail(ctx context.Context, id string) (*model.AuthorDetailView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthorDetailView), args.Error(1)
}

func (m *MockFrontService) Thumbnail(ctx context.Context, paperID string, image model.ImageID) (*model.Image, error) {
	args := m.Called(ctx, paperID, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Image), args.Error(1)
}

func (m *MockFrontService) Health(ctx context.Context) (*model.HealthView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.HealthView), args.Error(1)
}
