package commands

import (
	"fmt"
	"io"

	"github.com/dlp3d-ai/subdocs/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	return RunInit(out(g), root.Config, i.Force)
}

func RunInit(w io.Writer, configPath string, force bool) error {
	_, _ = fmt.Fprintf(w, "Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		_, _ = fmt.Fprintln(w, failColor.Sprint("Initialization failed"))
		return err
	}
	_, _ = fmt.Fprintln(w, okColor.Sprint("initialized successfully"))
	return nil
}
