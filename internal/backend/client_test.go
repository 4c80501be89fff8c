package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/five82/cbzmeta/internal/comic"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultAPIBind {
		t.Fatalf("host = %q, want %q", u.Host, defaultAPIBind)
	}

	u, err = parseBaseURL("https://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
	if u.Scheme != "https" {
		t.Fatalf("scheme = %q, want https", u.Scheme)
	}
}

type recorded struct {
	method string
	query  url.Values
	body   map[string]any
}

func TestClient_EndpointsAndEncoding(t *testing.T) {
	t.Parallel()

	calls := make(map[string]recorded)
	var gotUserAgent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		rec := recorded{method: r.Method, query: r.URL.Query()}
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			if len(raw) > 0 {
				_ = json.Unmarshal(raw, &rec.body)
			}
		}
		calls[r.Method+" "+r.URL.Path] = rec
		w.Header().Set("Content-Type", "application/json")

		switch r.Method + " " + r.URL.Path {
		case "POST /api/archive/open":
			_, _ = w.Write([]byte(`{"image_files":["001.jpg","002.jpg"],"comic_info":{"Title":"T","Pages":{"Page":{"@Image":"1","@Bookmark":"Ch1"}}},"error":null}`))
		case "POST /api/archive/unload", "POST /api/archive/watch", "DELETE /api/archive/comicinfo/raw":
			w.WriteHeader(http.StatusNoContent)
		case "GET /api/archive/file":
			_, _ = w.Write([]byte(`{"data":"AQID","error":null}`))
		case "POST /api/archive/pages":
			_, _ = w.Write([]byte(`[{"Image":0,"Type":"FrontCover"}]`))
		case "GET /api/archive/comicinfo":
			_, _ = w.Write([]byte(`null`))
		case "GET /api/archive/comicinfo/raw":
			_, _ = w.Write([]byte(`{"xml":"<ComicInfo/>"}`))
		case "PUT /api/archive/comicinfo/raw":
			_, _ = w.Write([]byte(`{"xml":"<ComicInfo>stored</ComicInfo>"}`))
		case "POST /api/comicinfo/validate":
			_, _ = w.Write([]byte(`{"valid":false,"message":"bad element"}`))
		case "POST /api/comicinfo/format":
			_, _ = w.Write([]byte(`{"xml":"<ComicInfo>\n</ComicInfo>"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	resp, err := c.OpenArchive(ctx, "/c/a b.cbz")
	if err != nil {
		t.Fatalf("OpenArchive returned error: %v", err)
	}
	if len(resp.ImageFiles) != 2 || resp.ComicInfo == nil || len(resp.ComicInfo.Pages) != 1 {
		t.Fatalf("OpenArchive payload = %#v", resp)
	}
	if resp.Error != nil {
		t.Fatalf("OpenArchive error field = %v, want nil", resp.Error)
	}
	if got := calls["POST /api/archive/open"].body["path"]; got != "/c/a b.cbz" {
		t.Fatalf("open body path = %v", got)
	}

	if err := c.CloseArchiveWatch(ctx, "/c/a.cbz"); err != nil {
		t.Fatalf("CloseArchiveWatch returned error: %v", err)
	}
	if err := c.WatchForCreation(ctx, "/c/a.cbz"); err != nil {
		t.Fatalf("WatchForCreation returned error: %v", err)
	}

	data, err := c.GetPreview(ctx, "/c/a b.cbz", "001.jpg")
	if err != nil {
		t.Fatalf("GetPreview returned error: %v", err)
	}
	if string(data.Data) != "\x01\x02\x03" {
		t.Fatalf("GetPreview data = %v", data.Data)
	}
	q := calls["GET /api/archive/file"].query
	if q.Get("path") != "/c/a b.cbz" || q.Get("file") != "001.jpg" {
		t.Fatalf("GetPreview query = %v", q)
	}

	pages, err := c.SaveSettings(ctx, "/c/a.cbz", map[string]comic.PagePayload{
		"001.jpg": {Type: "FrontCover", Image: 0},
	})
	if err != nil {
		t.Fatalf("SaveSettings returned error: %v", err)
	}
	if len(pages) != 1 || pages[0].Type != "FrontCover" {
		t.Fatalf("SaveSettings pages = %#v", pages)
	}
	settings, ok := calls["POST /api/archive/pages"].body["page_settings"].(map[string]any)
	if !ok || settings["001.jpg"] == nil {
		t.Fatalf("SaveSettings body = %v", calls["POST /api/archive/pages"].body)
	}

	info, err := c.ComicInfo(ctx, "/c/a.cbz")
	if err != nil {
		t.Fatalf("ComicInfo returned error: %v", err)
	}
	if info != nil {
		t.Fatalf("ComicInfo = %#v, want nil", info)
	}

	raw, found, err := c.RawComicInfo(ctx, "/c/a.cbz")
	if err != nil || !found || raw != "<ComicInfo/>" {
		t.Fatalf("RawComicInfo = %q, %v, %v", raw, found, err)
	}

	stored, err := c.SaveRawComicInfo(ctx, "/c/a.cbz", "<ComicInfo/>")
	if err != nil || stored != "<ComicInfo>stored</ComicInfo>" {
		t.Fatalf("SaveRawComicInfo = %q, %v", stored, err)
	}
	if body := calls["PUT /api/archive/comicinfo/raw"].body; body["path"] != "/c/a.cbz" || body["xml"] != "<ComicInfo/>" {
		t.Fatalf("SaveRawComicInfo body = %v", body)
	}

	if err := c.DeleteComicInfo(ctx, "/c/a.cbz"); err != nil {
		t.Fatalf("DeleteComicInfo returned error: %v", err)
	}
	if q := calls["DELETE /api/archive/comicinfo/raw"].query; q.Get("path") != "/c/a.cbz" {
		t.Fatalf("DeleteComicInfo query = %v", q)
	}

	err = c.ValidateComicInfo(ctx, "<ComicInfo/>")
	if comic.ErrorKindOf(err) != comic.ComicInfoXmlInvalid || comic.ErrorMessage(err) != "bad element" {
		t.Fatalf("ValidateComicInfo error = %v, want ComicInfoXmlInvalid", err)
	}

	formatted, err := c.FormatComicInfo(ctx, "<ComicInfo></ComicInfo>")
	if err != nil || !strings.Contains(formatted, "\n") {
		t.Fatalf("FormatComicInfo = %q, %v", formatted, err)
	}

	if !strings.HasPrefix(gotUserAgent, "cbzmeta/") {
		t.Fatalf("User-Agent = %q, want cbzmeta/*", gotUserAgent)
	}
}

func TestClient_RawComicInfoMissing(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"xml":null}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	raw, found, err := c.RawComicInfo(context.Background(), "/c/a.cbz")
	if err != nil || found || raw != "" {
		t.Fatalf("RawComicInfo = %q, %v, %v; want not found", raw, found, err)
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/archive/open":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/api/archive/watch":
			http.Error(w, "nope", http.StatusInternalServerError)
		case "/api/archive/unload":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error_type":"FailedToLoadArchive","message":"gone"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.OpenArchive(context.Background(), "/c/a.cbz")
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("OpenArchive error = %v, want decode response error", err)
	}

	err = c.WatchForCreation(context.Background(), "/c/a.cbz")
	if err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("WatchForCreation error = %v, want status 500 error", err)
	}

	err = c.CloseArchiveWatch(context.Background(), "/c/a.cbz")
	var se *comic.ServiceError
	if !errors.As(err, &se) || se.Kind != comic.FailedToLoadArchive || se.Message != "gone" {
		t.Fatalf("CloseArchiveWatch error = %v, want service error", err)
	}
}

func TestCalculateBackoff(t *testing.T) {
	interval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second},
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, interval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, interval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	for failures := 0; failures <= 64; failures++ {
		if got := calculateBackoff(failures, reconnectInterval); got > maxBackoff {
			t.Errorf("calculateBackoff(%d) = %v, exceeds maxBackoff %v", failures, got, maxBackoff)
		}
	}
}
