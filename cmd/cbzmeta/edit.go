package main

import "github.com/five82/cbzmeta/internal/app"

// Run executes the edit command.
func (c *EditCmd) Run(deps *Dependencies) error {
	return app.Run(deps.Ctx, deps.Options, c.Archive)
}
