package comic

import (
	"context"
	"encoding/json"
	"fmt"
)

// ArchiveService is the remote service that owns the archive files. Every
// operation addresses an archive by its path.
type ArchiveService interface {
	// OpenArchive loads the page list and metadata document of an archive
	// and starts the service-side watch for it. A soft problem is reported
	// in LoadResponse.Error with a nil error.
	OpenArchive(ctx context.Context, path string) (*LoadResponse, error)

	// CloseArchiveWatch stops the service-side watch for path.
	CloseArchiveWatch(ctx context.Context, path string) error

	// WatchForCreation asks the service to report when path appears.
	WatchForCreation(ctx context.Context, path string) error

	// GetPreview fetches the bytes of one page.
	GetPreview(ctx context.Context, path, pageID string) (*FileData, error)

	// StreamPreviews fetches many pages in one streaming request. onEvent is
	// called in delivery order; the call returns after the stream ends.
	StreamPreviews(ctx context.Context, path string, pageIDs []string, onEvent func(StreamEvent)) error

	// SaveSettings persists the page settings keyed by page identifier and
	// returns the resulting metadata pages.
	SaveSettings(ctx context.Context, path string, settings map[string]PagePayload) ([]ComicInfoPage, error)

	// ComicInfo re-reads only the metadata document of an archive.
	ComicInfo(ctx context.Context, path string) (*ComicInfo, error)

	// RawComicInfo returns the metadata document as text. The boolean is
	// false when the archive has none.
	RawComicInfo(ctx context.Context, path string) (string, bool, error)

	// SaveRawComicInfo replaces the metadata document and returns the text
	// as stored.
	SaveRawComicInfo(ctx context.Context, path, xml string) (string, error)

	// DeleteComicInfo removes the metadata document from the archive.
	DeleteComicInfo(ctx context.Context, path string) error

	// ValidateComicInfo checks a metadata document. Invalid documents are
	// reported as a *ServiceError of kind ComicInfoXmlInvalid.
	ValidateComicInfo(ctx context.Context, xml string) error

	// FormatComicInfo pretty prints a metadata document.
	FormatComicInfo(ctx context.Context, xml string) (string, error)
}

// ArchiveEvent names a change notification published by the service.
type ArchiveEvent string

// Change notifications; the payload of both is the affected archive path.
const (
	EventReloadArchive  ArchiveEvent = "reload-archive"
	EventArchiveCreated ArchiveEvent = "archive-created"
)

// EventSource delivers change notifications.
type EventSource interface {
	// Subscribe calls handler with the payload of every event named event.
	// The returned function removes the subscription; once it returns the
	// handler is never called again.
	Subscribe(ctx context.Context, event ArchiveEvent, handler func(payload string)) (unsubscribe func(), err error)
}

// KeyValueStore persists user preferences, namespaced per archive.
type KeyValueStore interface {
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
}

// StreamEventKind tags a StreamEvent.
type StreamEventKind string

// Stream event kinds, in the order a stream delivers them.
const (
	StreamStarted  StreamEventKind = "started"
	StreamPreview  StreamEventKind = "preview"
	StreamError    StreamEventKind = "error"
	StreamFinished StreamEventKind = "finished"
)

// StreamEvent is one message of a preview stream. Which fields are set
// depends on Kind: TotalFiles for started, FileName and DataBase64 for
// preview, FileName and Message for error.
type StreamEvent struct {
	Kind       StreamEventKind
	TotalFiles int
	FileName   string
	DataBase64 string
	Message    string
}

type streamEventWire struct {
	Event StreamEventKind `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type streamEventData struct {
	TotalFiles int    `json:"total_files,omitempty"`
	FileName   string `json:"file_name,omitempty"`
	DataBase64 string `json:"data_base64,omitempty"`
	Message    string `json:"message,omitempty"`
}

// MarshalJSON encodes the event in the {"event","data"} wire form.
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	wire := streamEventWire{Event: e.Kind}
	if e.Kind != StreamFinished {
		data, err := json.Marshal(streamEventData{
			TotalFiles: e.TotalFiles,
			FileName:   e.FileName,
			DataBase64: e.DataBase64,
			Message:    e.Message,
		})
		if err != nil {
			return nil, err
		}
		wire.Data = data
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the {"event","data"} wire form.
func (e *StreamEvent) UnmarshalJSON(b []byte) error {
	var wire streamEventWire
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	switch wire.Event {
	case StreamStarted, StreamPreview, StreamError, StreamFinished:
	default:
		return fmt.Errorf("unknown stream event %q", wire.Event)
	}

	var data streamEventData
	if len(wire.Data) > 0 && !isNull(wire.Data) {
		if err := json.Unmarshal(wire.Data, &data); err != nil {
			return fmt.Errorf("decode %s event: %w", wire.Event, err)
		}
	}
	*e = StreamEvent{
		Kind:       wire.Event,
		TotalFiles: data.TotalFiles,
		FileName:   data.FileName,
		DataBase64: data.DataBase64,
		Message:    data.Message,
	}
	return nil
}
