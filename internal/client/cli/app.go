// Package cli is an interactive shell over the taskkeeper API.
package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/taskkeeper/internal/client/api"
	"github.com/dmitrijs2005/taskkeeper/internal/client/config"
)

type App struct {
	config   *config.Config
	api      *api.Client
	reader   *bufio.Reader
	out      io.Writer
	userName string
}

func NewApp(c *config.Config) *App {
	return newApp(c, api.NewClient(c.ServerURL, c.RequestTimeout), os.Stdin, os.Stdout)
}

func newApp(c *config.Config, client *api.Client, in io.Reader, out io.Writer) *App {
	return &App{config: c, api: client, reader: bufio.NewReader(in), out: out}
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)

	// leave no live session behind
	if a.isLoggedIn() {
		_ = a.api.Logout(ctx)
	}
}

func (a *App) isLoggedIn() bool {
	return a.api.Token() != ""
}
