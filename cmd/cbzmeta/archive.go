package main

import (
	"errors"
	"fmt"

	"github.com/five82/cbzmeta/internal/comic"
	"github.com/five82/cbzmeta/internal/preview"
)

// Run executes the previews command.
func (c *PreviewsCmd) Run(deps *Dependencies) error {
	if err := deps.Env.OpenArchive(deps.Ctx, c.Archive); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", comic.ErrorMessage(err))
		return err
	}
	s := deps.Env.Session

	progress := false
	err := s.StreamPreviews(deps.Ctx, preview.Callbacks{
		OnProgress: func(loaded, total int) {
			progress = true
			fmt.Fprintf(deps.Stderr, "\rloading previews %d/%d", loaded, total)
		},
	})
	if progress {
		fmt.Fprintln(deps.Stderr)
	}
	if err != nil {
		return fmt.Errorf("stream previews: %w", err)
	}
	fmt.Fprintf(deps.Stdout, "%d of %d previews cached\n", s.Previews().Store().Len(), len(s.Snapshot().PageIDs))
	return nil
}

// Run executes the validate command.
func (c *ValidateCmd) Run(deps *Dependencies) error {
	if err := deps.Env.OpenArchive(deps.Ctx, c.Archive); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", comic.ErrorMessage(err))
		return err
	}
	if msg := deps.Env.Session.ValidateArchive(deps.Ctx); msg != "" {
		fmt.Fprintf(deps.Stderr, "invalid: %s\n", msg)
		return errors.New("ComicInfo.xml is not valid")
	}
	fmt.Fprintln(deps.Stdout, "ComicInfo.xml is valid")
	return nil
}

// Run executes the xml command.
func (c *XMLCmd) Run(deps *Dependencies) error {
	if err := deps.Env.OpenArchive(deps.Ctx, c.Archive); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", comic.ErrorMessage(err))
		return err
	}
	s := deps.Env.Session

	raw, found, err := s.RawMetadata(deps.Ctx)
	if err != nil {
		return fmt.Errorf("read ComicInfo.xml: %w", err)
	}
	if !found {
		return errors.New("archive has no ComicInfo.xml")
	}
	if c.Format {
		if raw, err = s.FormatMetadata(deps.Ctx, raw); err != nil {
			return fmt.Errorf("format ComicInfo.xml: %w", err)
		}
	}
	fmt.Fprintln(deps.Stdout, raw)
	return nil
}
