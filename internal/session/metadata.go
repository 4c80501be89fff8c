package session

import (
	"context"
	"fmt"

	"github.com/five82/cbzmeta/internal/comic"
)

// RawMetadata returns the ComicInfo.xml of the current archive. The boolean
// is false when the archive has none.
func (s *Session) RawMetadata(ctx context.Context) (string, bool, error) {
	path := s.Path()
	if path == "" {
		return "", false, comic.ErrNoArchive
	}
	xml, ok, err := s.service.RawComicInfo(ctx, path)
	if err != nil {
		return "", false, fmt.Errorf("read metadata: %w", err)
	}
	return xml, ok, nil
}

// SaveRawMetadata replaces the ComicInfo.xml of the current archive and
// reloads it.
func (s *Session) SaveRawMetadata(ctx context.Context, xml string) (string, error) {
	path := s.Path()
	if path == "" {
		return "", comic.ErrNoArchive
	}
	stored, err := s.service.SaveRawComicInfo(ctx, path, xml)
	if err != nil {
		return "", fmt.Errorf("save metadata: %w", err)
	}
	s.logger.Info("metadata saved", "path", path)
	if err := s.Reload(ctx); err != nil {
		return stored, err
	}
	return stored, nil
}

// DeleteMetadata removes the ComicInfo.xml of the current archive and
// reloads it.
func (s *Session) DeleteMetadata(ctx context.Context) error {
	path := s.Path()
	if path == "" {
		return comic.ErrNoArchive
	}
	if err := s.service.DeleteComicInfo(ctx, path); err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}
	s.logger.Info("metadata deleted", "path", path)
	return s.Reload(ctx)
}

// FormatMetadata pretty prints a ComicInfo.xml document.
func (s *Session) FormatMetadata(ctx context.Context, xml string) (string, error) {
	formatted, err := s.service.FormatComicInfo(ctx, xml)
	if err != nil {
		return "", fmt.Errorf("format metadata: %w", err)
	}
	return formatted, nil
}

// ValidateMetadata checks a ComicInfo.xml document and returns a message
// describing the problem, or "" when it is valid. Failures are reported as
// messages, never as errors.
func (s *Session) ValidateMetadata(ctx context.Context, xml string) string {
	if msg := comic.CheckXML(xml); msg != "" {
		return msg
	}
	if err := s.service.ValidateComicInfo(ctx, xml); err != nil {
		s.logger.Debug("metadata invalid", "error", err)
		return comic.ErrorMessage(err)
	}
	return ""
}

// ValidateArchive validates the ComicInfo.xml of the current archive.
func (s *Session) ValidateArchive(ctx context.Context) string {
	xml, ok, err := s.RawMetadata(ctx)
	if err != nil {
		return comic.ErrorMessage(err)
	}
	if !ok {
		return "archive has no ComicInfo.xml"
	}
	return s.ValidateMetadata(ctx, xml)
}
