package comic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ComicInfo is the archive-level metadata document (ComicInfo.xml) as
// delivered by the archive service.
type ComicInfo struct {
	Title           string   `json:"Title,omitempty"`
	Series          string   `json:"Series,omitempty"`
	Number          string   `json:"Number,omitempty"`
	Count           int      `json:"Count,omitempty"`
	Volume          int      `json:"Volume,omitempty"`
	AlternateSeries string   `json:"AlternateSeries,omitempty"`
	AlternateNumber string   `json:"AlternateNumber,omitempty"`
	AlternateCount  int      `json:"AlternateCount,omitempty"`
	Summary         string   `json:"Summary,omitempty"`
	Notes           string   `json:"Notes,omitempty"`
	Year            int      `json:"Year,omitempty"`
	Month           int      `json:"Month,omitempty"`
	Day             int      `json:"Day,omitempty"`
	Writer          string   `json:"Writer,omitempty"`
	Penciller       string   `json:"Penciller,omitempty"`
	Inker           string   `json:"Inker,omitempty"`
	Colorist        string   `json:"Colorist,omitempty"`
	Letterer        string   `json:"Letterer,omitempty"`
	CoverArtist     string   `json:"CoverArtist,omitempty"`
	Editor          string   `json:"Editor,omitempty"`
	Translator      string   `json:"Translator,omitempty"`
	Publisher       string   `json:"Publisher,omitempty"`
	Imprint         string   `json:"Imprint,omitempty"`
	Genre           string   `json:"Genre,omitempty"`
	Tags            string   `json:"Tags,omitempty"`
	Web             string   `json:"Web,omitempty"`
	PageCount       int      `json:"PageCount,omitempty"`
	Pages           PageList `json:"Pages,omitempty"`
}

// Writers splits the comma separated Writer field.
func (c *ComicInfo) Writers() []string {
	if c == nil {
		return nil
	}
	return splitList(c.Writer)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ComicInfoPage is one sparse <Page> entry of the metadata document.
type ComicInfoPage struct {
	Image       *int   `json:"Image,omitempty"`
	Type        string `json:"Type,omitempty"`
	DoublePage  bool   `json:"DoublePage,omitempty"`
	Bookmark    string `json:"Bookmark,omitempty"`
	Key         string `json:"Key,omitempty"`
	ImageSize   int64  `json:"ImageSize,omitempty"`
	ImageWidth  int    `json:"ImageWidth,omitempty"`
	ImageHeight int    `json:"ImageHeight,omitempty"`
}

// Settings converts the entry to PageSettings.
func (p ComicInfoPage) Settings() PageSettings {
	return PageSettings{
		Type:       ParsePageType(p.Type),
		DoublePage: p.DoublePage,
		Bookmark:   p.Bookmark,
	}
}

// UnmarshalJSON accepts both plain keys ("Image") and XML attribute keys
// ("@Image"), and numbers or booleans encoded as strings.
func (p *ComicInfoPage) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode page: %w", err)
	}

	var page ComicInfoPage
	if v, ok := attr(raw, "Image"); ok {
		n, err := decodeInt(v)
		if err != nil {
			return fmt.Errorf("decode page Image: %w", err)
		}
		page.Image = &n
	}
	if v, ok := attr(raw, "Type"); ok {
		page.Type = decodeString(v)
	}
	if v, ok := attr(raw, "DoublePage"); ok {
		b, err := decodeBool(v)
		if err != nil {
			return fmt.Errorf("decode page DoublePage: %w", err)
		}
		page.DoublePage = b
	}
	if v, ok := attr(raw, "Bookmark"); ok {
		page.Bookmark = decodeString(v)
	}
	if v, ok := attr(raw, "Key"); ok {
		page.Key = decodeString(v)
	}
	if v, ok := attr(raw, "ImageSize"); ok {
		n, err := decodeInt(v)
		if err == nil {
			page.ImageSize = int64(n)
		}
	}
	if v, ok := attr(raw, "ImageWidth"); ok {
		if n, err := decodeInt(v); err == nil {
			page.ImageWidth = n
		}
	}
	if v, ok := attr(raw, "ImageHeight"); ok {
		if n, err := decodeInt(v); err == nil {
			page.ImageHeight = n
		}
	}

	*p = page
	return nil
}

func attr(raw map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if v, ok := raw[name]; ok && !isNull(v) {
		return v, true
	}
	if v, ok := raw["@"+name]; ok && !isNull(v) {
		return v, true
	}
	return nil, false
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func decodeString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return strings.Trim(string(v), `"`)
}

func decodeInt(v json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(v, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", v)
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

func decodeBool(v json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return false, fmt.Errorf("not a boolean: %s", v)
	}
	if strings.TrimSpace(s) == "" {
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}

// PageList is the normalised page sequence of a metadata document. The
// service may send either a bare array or an object wrapping the array
// under "Page"; a single wrapped object is also accepted.
type PageList []ComicInfoPage

// UnmarshalJSON implements json.Unmarshaler for both page list shapes.
func (l *PageList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || isNull(trimmed) {
		*l = nil
		return nil
	}

	switch trimmed[0] {
	case '[':
		var pages []ComicInfoPage
		if err := json.Unmarshal(trimmed, &pages); err != nil {
			return err
		}
		*l = pages
		return nil
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return err
		}
		inner, ok := wrapper["Page"]
		if !ok {
			*l = nil
			return nil
		}
		inner = bytes.TrimSpace(inner)
		if len(inner) > 0 && inner[0] == '{' {
			var single ComicInfoPage
			if err := json.Unmarshal(inner, &single); err != nil {
				return err
			}
			*l = PageList{single}
			return nil
		}
		var pages []ComicInfoPage
		if err := json.Unmarshal(inner, &pages); err != nil {
			return err
		}
		*l = pages
		return nil
	default:
		return fmt.Errorf("unsupported Pages shape: %.20s", trimmed)
	}
}

// ByImage returns the first entry whose Image index equals index.
func (l PageList) ByImage(index int) (ComicInfoPage, bool) {
	for _, p := range l {
		if p.Image != nil && *p.Image == index {
			return p, true
		}
	}
	return ComicInfoPage{}, false
}

// SettingsFromComicInfo builds one PageSettings per page identifier, using
// the identifier's position as the Image index. Pages without a matching
// metadata entry get blank settings.
func SettingsFromComicInfo(pageIDs []string, info *ComicInfo) map[string]PageSettings {
	out := make(map[string]PageSettings, len(pageIDs))

	byIndex := make(map[int]ComicInfoPage)
	if info != nil {
		for _, p := range info.Pages {
			if p.Image == nil {
				continue
			}
			if _, seen := byIndex[*p.Image]; !seen {
				byIndex[*p.Image] = p
			}
		}
	}

	for i, id := range pageIDs {
		if p, ok := byIndex[i]; ok {
			out[id] = p.Settings()
			continue
		}
		out[id] = BlankSettings()
	}
	return out
}

// LoadResponse is the result of opening an archive. Error carries a soft,
// recoverable problem even though the call itself succeeded.
type LoadResponse struct {
	ImageFiles []string      `json:"image_files"`
	ComicInfo  *ComicInfo    `json:"comic_info"`
	Error      *ServiceError `json:"error"`
}

// FileData is the result of fetching a single archive entry.
type FileData struct {
	Data  []byte        `json:"data"`
	Error *ServiceError `json:"error"`
}
