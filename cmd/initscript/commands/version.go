package commands

import (
	"fmt"

	"git.home.luguber.info/inful/initscript/internal/version"
)

// VersionCmd prints build information.
type VersionCmd struct{}

func (VersionCmd) Run(global *Global) error {
	_, err := fmt.Fprintln(global.Out, version.String())
	return err
}
