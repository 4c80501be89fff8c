package main

import (
	"context"
	"io"

	"github.com/five82/cbzmeta/internal/app"
	"github.com/five82/cbzmeta/internal/config"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Options app.Options
	Config  config.Config
	Env     *app.Env
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config string `short:"c" type:"path" help:"Path to config.toml (default ~/.config/cbzmeta/config.toml)"`
	Prefs  string `type:"path" help:"Path to prefs.toml (default ~/.config/cbzmeta/prefs.toml)"`

	Edit      EditCmd      `cmd:"" default:"withargs" help:"Open the page editor (default command)"`
	Pages     PagesCmd     `cmd:"" help:"List the pages of an archive with their settings"`
	Bookmarks BookmarksCmd `cmd:"" help:"Print the table of contents of an archive"`
	Set       SetCmd       `cmd:"" help:"Change the settings of one page"`
	Previews  PreviewsCmd  `cmd:"" help:"Load every page preview of an archive"`
	Validate  ValidateCmd  `cmd:"" help:"Validate the ComicInfo.xml of an archive"`
	XML       XMLCmd       `cmd:"" name:"xml" help:"Print the ComicInfo.xml of an archive"`
	Logs      LogsCmd      `cmd:"" help:"Show the cbzmeta log"`
}

// EditCmd is the "edit" subcommand.
type EditCmd struct {
	Archive string `arg:"" optional:"" type:"path" help:"Archive to open (default: last opened)"`
}

// PagesCmd is the "pages" subcommand.
type PagesCmd struct {
	Archive string `arg:"" type:"path" help:"Archive path"`
	Filter  string `short:"f" enum:"all,edited,bookmarked" default:"all" help:"Show only edited or bookmarked pages (${enum})"`
}

// BookmarksCmd is the "bookmarks" subcommand.
type BookmarksCmd struct {
	Archive string `arg:"" type:"path" help:"Archive path"`
}

// SetCmd is the "set" subcommand.
type SetCmd struct {
	Archive       string `arg:"" type:"path" help:"Archive path"`
	Page          string `arg:"" help:"1-based page number"`
	Type          string `short:"t" help:"Page type, e.g. FrontCover or Story"`
	Double        bool   `help:"Mark the page as a double page spread" xor:"double"`
	Single        bool   `help:"Clear the double page flag" xor:"double"`
	Bookmark      string `short:"b" help:"Bookmark label"`
	ClearBookmark bool   `help:"Remove the bookmark"`
	Save          bool   `short:"s" help:"Write the edited pages to the archive"`
}

// PreviewsCmd is the "previews" subcommand.
type PreviewsCmd struct {
	Archive string `arg:"" type:"path" help:"Archive path"`
}

// ValidateCmd is the "validate" subcommand.
type ValidateCmd struct {
	Archive string `arg:"" type:"path" help:"Archive path"`
}

// XMLCmd is the "xml" subcommand.
type XMLCmd struct {
	Archive string `arg:"" type:"path" help:"Archive path"`
	Format  bool   `help:"Pretty-print the document"`
}

// LogsCmd is the "logs" subcommand.
type LogsCmd struct {
	Lines   int    `short:"n" default:"200" help:"Number of entries to show (0 for all)"`
	Level   string `short:"l" default:"debug" help:"Minimum level (debug, info, warn, error)"`
	Session string `help:"Only entries of this session id (prefix match)"`
	Path    string `help:"Only entries about this archive path"`
	Raw     bool   `help:"Print lines without colour"`
	File    string `type:"path" help:"Log file to read (default <log_dir>/cbzmeta.log)"`
}
