package logtail

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeLog(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cbzmeta.log")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}
	return path
}

func messages(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

func TestRead(t *testing.T) {
	var lines []string
	for i := 1; i <= 10; i++ {
		lines = append(lines, fmt.Sprintf("Line %d", i))
	}
	path := writeLog(t, lines)

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"read all (0)", 0, lines},
		{"read all (negative)", -1, lines},
		{"read partial (5)", 5, lines[5:]},
		{"read exactly all (10)", 10, lines},
		{"read more than exists (20)", 20, lines},
		{"read one", 1, lines[9:]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(path, tt.maxLines, nil)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if fmt.Sprint(messages(got)) != fmt.Sprint(tt.expected) {
				t.Errorf("Read() = %v, want %v", messages(got), tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10, nil)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestParse_SlogTextHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.With("session", "3f2a").Warn("archive loaded with error", "path", "/c/My Comic.cbz", "pages", 24)

	e := Parse(strings.TrimSpace(buf.String()))
	if !e.Parsed {
		t.Fatalf("Parse(%q) not parsed", buf.String())
	}
	if e.Level != slog.LevelWarn {
		t.Errorf("Level = %v, want WARN", e.Level)
	}
	if e.Message != "archive loaded with error" {
		t.Errorf("Message = %q", e.Message)
	}
	if time.Since(e.Time) > time.Minute {
		t.Errorf("Time = %v, want now", e.Time)
	}
	if e.Get("path") != "/c/My Comic.cbz" || e.Get("pages") != "24" || e.Get("session") != "3f2a" {
		t.Errorf("Attrs = %v", e.Attrs)
	}
}

func TestParse_PlainLine(t *testing.T) {
	e := Parse("panic: something broke")
	if e.Parsed {
		t.Fatalf("Parse() parsed a plain line: %+v", e)
	}
	if e.Message != "panic: something broke" {
		t.Errorf("Message = %q", e.Message)
	}
	if got := Render(e); got != e.Raw {
		t.Errorf("Render() = %q, want raw line", got)
	}
}

func TestRead_Filtered(t *testing.T) {
	path := writeLog(t, []string{
		`time=2025-10-08T21:01:05.000Z level=DEBUG msg="stream started" session=aaaa path=/c/a.cbz`,
		`time=2025-10-08T21:01:06.000Z level=INFO msg="archive loaded" session=aaaa path=/c/a.cbz`,
		`time=2025-10-08T21:01:07.000Z level=ERROR msg="open archive" session=bbbb path=/c/b.cbz error="dial tcp: refused"`,
		`goroutine 1 [running]:`,
		`time=2025-10-08T21:01:08.000Z level=WARN msg="preview failed" session=aaaa path=/c/a.cbz page=002.jpg`,
	})

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"everything at debug", Filter{MinLevel: slog.LevelDebug}, []string{"stream started", "archive loaded", "open archive", "preview failed"}},
		{"info and up", Filter{MinLevel: slog.LevelInfo}, []string{"archive loaded", "open archive", "preview failed"}},
		{"error only", Filter{MinLevel: slog.LevelError}, []string{"open archive"}},
		{"session prefix", Filter{MinLevel: slog.LevelDebug, Session: "aa"}, []string{"stream started", "archive loaded", "preview failed"}},
		{"path", Filter{MinLevel: slog.LevelDebug, Path: "/c/b.cbz"}, []string{"open archive"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(path, 0, tt.filter.Match)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if fmt.Sprint(messages(got)) != fmt.Sprint(tt.want) {
				t.Errorf("Read() = %q, want %q", messages(got), tt.want)
			}
		})
	}

	got, err := Read(path, 1, Filter{MinLevel: slog.LevelError}.Match)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 1 || got[0].Get("error") != "dial tcp: refused" {
		t.Fatalf("Read() = %+v, want the quoted error value", got)
	}
	if fmt.Sprint(got[0].Continuation) != "[goroutine 1 [running]:]" {
		t.Errorf("Continuation = %q, want the trace line", got[0].Continuation)
	}
	if !strings.HasSuffix(got[0].Raw, "\ngoroutine 1 [running]:") {
		t.Errorf("Raw = %q, want the trace line appended", got[0].Raw)
	}
	if out := Render(got[0]); !strings.Contains(out, "goroutine 1 [running]:") {
		t.Errorf("Render() = %q, missing the trace line", out)
	}
}

func TestRead_LeadingPlainLinesStandAlone(t *testing.T) {
	path := writeLog(t, []string{
		`panic: boom`,
		`time=2025-10-08T21:01:06.000Z level=INFO msg="archive loaded" session=aaaa`,
		`	main.go:12`,
	})

	got, err := Read(path, 0, Filter{MinLevel: slog.LevelDebug}.Match)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if fmt.Sprint(messages(got)) != fmt.Sprint([]string{"panic: boom", "archive loaded"}) {
		t.Fatalf("Read() = %q", messages(got))
	}
	if len(got[1].Continuation) != 1 {
		t.Errorf("Continuation = %q, want one line", got[1].Continuation)
	}

	got, err = Read(path, 0, Filter{MinLevel: slog.LevelWarn}.Match)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Read() = %q, want nothing at WARN", messages(got))
	}
}

func TestRender_ContainsFields(t *testing.T) {
	e := Parse(`time=2025-10-08T21:01:06.000Z level=INFO msg="archive loaded" path=/c/a.cbz pages=3`)
	out := Render(e)
	for _, want := range []string{"INFO", "archive loaded", "path=", "/c/a.cbz", "pages=", "3"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() = %q, missing %q", out, want)
		}
	}
}
