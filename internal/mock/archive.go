package mock

import (
	"context"

	"github.com/five82/cbzmeta/internal/comic"
)

var _ comic.ArchiveService = (*ArchiveService)(nil)

// ArchiveService is a mock implementation of comic.ArchiveService. Methods
// whose Fn is nil return zero values.
type ArchiveService struct {
	OpenArchiveFn       func(ctx context.Context, path string) (*comic.LoadResponse, error)
	CloseArchiveWatchFn func(ctx context.Context, path string) error
	WatchForCreationFn  func(ctx context.Context, path string) error
	GetPreviewFn        func(ctx context.Context, path, pageID string) (*comic.FileData, error)
	StreamPreviewsFn    func(ctx context.Context, path string, pageIDs []string, onEvent func(comic.StreamEvent)) error
	SaveSettingsFn      func(ctx context.Context, path string, settings map[string]comic.PagePayload) ([]comic.ComicInfoPage, error)
	ComicInfoFn         func(ctx context.Context, path string) (*comic.ComicInfo, error)
	RawComicInfoFn      func(ctx context.Context, path string) (string, bool, error)
	SaveRawComicInfoFn  func(ctx context.Context, path, xml string) (string, error)
	DeleteComicInfoFn   func(ctx context.Context, path string) error
	ValidateComicInfoFn func(ctx context.Context, xml string) error
	FormatComicInfoFn   func(ctx context.Context, xml string) (string, error)
}

func (s *ArchiveService) OpenArchive(ctx context.Context, path string) (*comic.LoadResponse, error) {
	if s.OpenArchiveFn == nil {
		return &comic.LoadResponse{}, nil
	}
	return s.OpenArchiveFn(ctx, path)
}

func (s *ArchiveService) CloseArchiveWatch(ctx context.Context, path string) error {
	if s.CloseArchiveWatchFn == nil {
		return nil
	}
	return s.CloseArchiveWatchFn(ctx, path)
}

func (s *ArchiveService) WatchForCreation(ctx context.Context, path string) error {
	if s.WatchForCreationFn == nil {
		return nil
	}
	return s.WatchForCreationFn(ctx, path)
}

func (s *ArchiveService) GetPreview(ctx context.Context, path, pageID string) (*comic.FileData, error) {
	if s.GetPreviewFn == nil {
		return &comic.FileData{}, nil
	}
	return s.GetPreviewFn(ctx, path, pageID)
}

func (s *ArchiveService) StreamPreviews(ctx context.Context, path string, pageIDs []string, onEvent func(comic.StreamEvent)) error {
	if s.StreamPreviewsFn == nil {
		return nil
	}
	return s.StreamPreviewsFn(ctx, path, pageIDs, onEvent)
}

func (s *ArchiveService) SaveSettings(ctx context.Context, path string, settings map[string]comic.PagePayload) ([]comic.ComicInfoPage, error) {
	if s.SaveSettingsFn == nil {
		return nil, nil
	}
	return s.SaveSettingsFn(ctx, path, settings)
}

func (s *ArchiveService) ComicInfo(ctx context.Context, path string) (*comic.ComicInfo, error) {
	if s.ComicInfoFn == nil {
		return nil, nil
	}
	return s.ComicInfoFn(ctx, path)
}

func (s *ArchiveService) RawComicInfo(ctx context.Context, path string) (string, bool, error) {
	if s.RawComicInfoFn == nil {
		return "", false, nil
	}
	return s.RawComicInfoFn(ctx, path)
}

func (s *ArchiveService) SaveRawComicInfo(ctx context.Context, path, xml string) (string, error) {
	if s.SaveRawComicInfoFn == nil {
		return xml, nil
	}
	return s.SaveRawComicInfoFn(ctx, path, xml)
}

func (s *ArchiveService) DeleteComicInfo(ctx context.Context, path string) error {
	if s.DeleteComicInfoFn == nil {
		return nil
	}
	return s.DeleteComicInfoFn(ctx, path)
}

func (s *ArchiveService) ValidateComicInfo(ctx context.Context, xml string) error {
	if s.ValidateComicInfoFn == nil {
		return nil
	}
	return s.ValidateComicInfoFn(ctx, xml)
}

func (s *ArchiveService) FormatComicInfo(ctx context.Context, xml string) (string, error) {
	if s.FormatComicInfoFn == nil {
		return xml, nil
	}
	return s.FormatComicInfoFn(ctx, xml)
}
