// Package cli implements the ghostpaste command line: every command runs
// directly against the configured storage backend through the paste
// client, so encryption and decryption happen in this process.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/ghostpaste/internal/common"
	"github.com/dmitrijs2005/ghostpaste/internal/config"
	"github.com/dmitrijs2005/ghostpaste/internal/gist"
	"github.com/dmitrijs2005/ghostpaste/internal/logging"
	"github.com/dmitrijs2005/ghostpaste/internal/paste"
	"github.com/dmitrijs2005/ghostpaste/internal/storage"
	"github.com/dmitrijs2005/ghostpaste/internal/storage/backend"
)

var ErrUsage = errors.New("usage error")

type App struct {
	config  *config.Config
	gists   *gist.Service
	paste   *paste.Client
	backend backend.Backend
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	b, err := backend.Open(ctx, c.BackendConfig())
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	svc := gist.NewService(storage.New(b),
		gist.WithRetryPolicy(c.RetryPolicy(gist.IsTransient)),
		gist.WithMaxVersions(c.MaxVersions),
		gist.WithLogger(logger),
	)

	app := newApp(c, svc, bufio.NewReader(os.Stdin), os.Stdout)
	app.backend = b
	return app, nil
}

func newApp(c *config.Config, svc *gist.Service, reader *bufio.Reader, out io.Writer) *App {
	return &App{
		config: c,
		gists:  svc,
		paste:  paste.NewClient(svc, c.BaseURL, c.CodecLimits()),
		reader: reader,
		out:    out,
	}
}

func (a *App) Close() error {
	if a.backend == nil {
		return nil
	}
	return a.backend.Close()
}

const usage = `Usage: ghostpaste [config flags] <command> [args]

Commands:
  create [-d description] [-p] [-expires 1h] [-once] file...
  get <share-url> [-out dir]
  update <share-url> [-d description] file...
  delete <share-url>
  versions <share-url>
  stats
  sweep
  genpass
  version
`

// Run executes the command in args.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "create":
		return a.create(ctx, rest)
	case "get":
		return a.get(ctx, rest)
	case "update":
		return a.update(ctx, rest)
	case "delete":
		return a.delete(ctx, rest)
	case "versions":
		return a.versions(ctx, rest)
	case "stats":
		return a.stats(ctx)
	case "sweep":
		return a.sweep(ctx)
	case "genpass":
		return a.genpass()
	case "help", "-h", "-help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

// ExitCode maps an error returned by Run to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		return 2
	}
	switch common.KindOf(err) {
	case common.KindNotFound:
		return 3
	case common.KindAuth:
		return 4
	case common.KindConflict:
		return 5
	default:
		return 1
	}
}
