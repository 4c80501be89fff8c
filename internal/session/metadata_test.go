package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/cbzmeta/internal/comic"
	"github.com/five82/cbzmeta/internal/mock"
	"github.com/five82/cbzmeta/internal/preview"
	"github.com/five82/cbzmeta/internal/session"
)

func previewCallbacks(last *[2]int, finished *int) preview.Callbacks {
	return preview.Callbacks{
		OnProgress: func(loaded, total int) { *last = [2]int{loaded, total} },
		OnFinish:   func() { *finished++ },
	}
}

const validXML = `<?xml version="1.0"?><ComicInfo><Title>Test</Title></ComicInfo>`

func TestValidateMetadata(t *testing.T) {
	ctx := context.Background()
	var validated []string
	svc := &mock.ArchiveService{
		ValidateComicInfoFn: func(_ context.Context, xml string) error {
			validated = append(validated, xml)
			if xml == validXML {
				return nil
			}
			return comic.Errorf(comic.ComicInfoXmlInvalid, "Element 'Title' is not allowed here")
		},
	}
	s := session.New(session.Options{Service: svc})

	assert.Empty(t, s.ValidateMetadata(ctx, validXML))

	msg := s.ValidateMetadata(ctx, "<ComicInfo><Title>x</Title")
	assert.Contains(t, msg, "not well-formed")
	assert.Len(t, validated, 1, "malformed XML never reaches the service")

	msg = s.ValidateMetadata(ctx, "<ComicInfo><Series><Title/></Series></ComicInfo>")
	assert.Equal(t, "Element 'Title' is not allowed here", msg)
}

func TestValidateMetadataTransportErrorIsMessage(t *testing.T) {
	svc := &mock.ArchiveService{
		ValidateComicInfoFn: func(context.Context, string) error {
			return errors.New("connection refused")
		},
	}
	s := session.New(session.Options{Service: svc})
	assert.Equal(t, "connection refused", s.ValidateMetadata(context.Background(), validXML))
}

func TestValidateArchive(t *testing.T) {
	ctx := context.Background()
	hasXML := false
	svc := &mock.ArchiveService{
		OpenArchiveFn: func(context.Context, string) (*comic.LoadResponse, error) {
			return loadResponse("001.jpg"), nil
		},
		RawComicInfoFn: func(context.Context, string) (string, bool, error) {
			if !hasXML {
				return "", false, nil
			}
			return validXML, true, nil
		},
	}
	s := session.New(session.Options{Service: svc})

	assert.Equal(t, comic.ErrNoArchive.Error(), s.ValidateArchive(ctx))

	require.NoError(t, s.SetPath(ctx, pathA))
	assert.Equal(t, "archive has no ComicInfo.xml", s.ValidateArchive(ctx))

	hasXML = true
	assert.Empty(t, s.ValidateArchive(ctx))
}

func TestRawMetadataOperations(t *testing.T) {
	ctx := context.Background()
	var opens, deletes int
	var saved string
	svc := &mock.ArchiveService{
		OpenArchiveFn: func(context.Context, string) (*comic.LoadResponse, error) {
			opens++
			return loadResponse("001.jpg"), nil
		},
		SaveRawComicInfoFn: func(_ context.Context, path, xml string) (string, error) {
			assert.Equal(t, pathA, path)
			saved = xml
			return xml, nil
		},
		DeleteComicInfoFn: func(context.Context, string) error {
			deletes++
			return nil
		},
		FormatComicInfoFn: func(_ context.Context, xml string) (string, error) {
			return "formatted:" + xml, nil
		},
	}
	s := session.New(session.Options{Service: svc})

	_, _, err := s.RawMetadata(ctx)
	require.ErrorIs(t, err, comic.ErrNoArchive)
	_, err = s.SaveRawMetadata(ctx, validXML)
	require.ErrorIs(t, err, comic.ErrNoArchive)
	require.ErrorIs(t, s.DeleteMetadata(ctx), comic.ErrNoArchive)

	require.NoError(t, s.SetPath(ctx, pathA))

	stored, err := s.SaveRawMetadata(ctx, validXML)
	require.NoError(t, err)
	assert.Equal(t, validXML, stored)
	assert.Equal(t, validXML, saved)
	assert.Equal(t, 2, opens)

	require.NoError(t, s.DeleteMetadata(ctx))
	assert.Equal(t, 1, deletes)
	assert.Equal(t, 3, opens)

	formatted, err := s.FormatMetadata(ctx, "<x/>")
	require.NoError(t, err)
	assert.Equal(t, "formatted:<x/>", formatted)
}

func TestReloadMetadataRefreshesAuthoritative(t *testing.T) {
	ctx := context.Background()
	svc := &mock.ArchiveService{
		OpenArchiveFn: func(context.Context, string) (*comic.LoadResponse, error) {
			return &comic.LoadResponse{ImageFiles: []string{"001.jpg", "002.jpg"}}, nil
		},
		ComicInfoFn: func(context.Context, string) (*comic.ComicInfo, error) {
			return &comic.ComicInfo{Pages: comic.PageList{{Image: intp(1), Bookmark: "Later"}}}, nil
		},
	}
	s := session.New(session.Options{Service: svc})

	require.ErrorIs(t, s.ReloadMetadata(ctx), comic.ErrNoArchive)

	require.NoError(t, s.SetPath(ctx, pathA))
	assert.Empty(t, s.Snapshot().Bookmarks)

	require.NoError(t, s.ReloadMetadata(ctx))
	assert.Equal(t, []string{"002.jpg"}, s.Snapshot().Bookmarks)
	auth, ok := s.Settings().Authoritative("002.jpg")
	require.True(t, ok)
	assert.Equal(t, "Later", auth.Bookmark)
	// Current was seeded from the first load, so the new bookmark shows up
	// as a difference until the user resets.
	assert.True(t, s.Settings().IsEdited("002.jpg"))
}
