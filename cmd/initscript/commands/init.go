package commands

import (
	"fmt"

	"git.home.luguber.info/inful/initscript/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(global *Global, root *CLI) error {
	path := root.Config
	if path == "" {
		path = config.DefaultConfigFile
	}
	_, _ = fmt.Fprintf(global.Out, "Writing configuration to %s\n", path)
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(global.Out, "initialized successfully")
	return nil
}
