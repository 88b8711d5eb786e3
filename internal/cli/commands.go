package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ghostpaste/internal/filex"
	"github.com/dmitrijs2005/ghostpaste/internal/passwd"
	"github.com/dmitrijs2005/ghostpaste/internal/paste"
)

// parseArgs parses fs allowing flags after positional arguments, so both
// "get -out dir URL" and "get URL -out dir" work. It returns the
// positional arguments.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUsage, err)
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *App) create(ctx context.Context, args []string) error {
	fs := a.flagSet("create")
	desc := fs.String("d", "", "description")
	withPassword := fs.Bool("p", false, "allow edits with a password")
	expires := fs.Duration("expires", 0, "delete after this long (e.g. 24h)")
	once := fs.Bool("once", false, "delete after the first read")

	paths, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("%w: create needs at least one file", ErrUsage)
	}
	if *expires < 0 {
		return fmt.Errorf("%w: negative -expires", ErrUsage)
	}

	files, err := filex.LoadFiles(paths)
	if err != nil {
		return err
	}

	opts := paste.CreateOptions{Description: *desc, ExpiresIn: *expires, OneTimeView: *once}
	if *withPassword {
		if opts.Password, err = GetNewPassword(a.reader, a.out); err != nil {
			return err
		}
	}

	created, err := a.paste.Create(ctx, files, opts)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, created.ShareURL)
	return nil
}

func oneURL(name string, pos []string) (string, error) {
	if len(pos) != 1 {
		return "", fmt.Errorf("%w: %s needs exactly one share URL", ErrUsage, name)
	}
	return pos[0], nil
}

func (a *App) get(ctx context.Context, args []string) error {
	fs := a.flagSet("get")
	outDir := fs.String("out", "", "write files into this directory")
	version := fs.String("version", "", "read this version instead of the current one")

	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	url, err := oneURL("get", pos)
	if err != nil {
		return err
	}

	var doc *paste.Document
	if *version != "" {
		doc, err = a.paste.ReadVersion(ctx, url, *version)
	} else {
		doc, err = a.paste.Read(ctx, url)
	}
	if err != nil {
		return err
	}

	if *outDir != "" {
		written, err := filex.WriteFiles(*outDir, doc.Files)
		for _, p := range written {
			fmt.Fprintln(a.out, p)
		}
		if err != nil {
			return err
		}
	} else {
		a.printDocument(doc)
	}

	if doc.Deleted {
		fmt.Fprintln(a.out, "(document deleted after this read)")
	}
	return nil
}

func (a *App) printDocument(doc *paste.Document) {
	if doc.Side != nil && doc.Side.Description != "" {
		fmt.Fprintf(a.out, "# %s\n\n", doc.Side.Description)
	}
	for i, f := range doc.Files {
		if i > 0 {
			fmt.Fprintln(a.out)
		}
		if f.Language != "" {
			fmt.Fprintf(a.out, "==> %s (%s) <==\n", f.Name, f.Language)
		} else {
			fmt.Fprintf(a.out, "==> %s <==\n", f.Name)
		}
		fmt.Fprint(a.out, f.Content)
		if n := len(f.Content); n > 0 && f.Content[n-1] != '\n' {
			fmt.Fprintln(a.out)
		}
	}
}

func (a *App) update(ctx context.Context, args []string) error {
	fs := a.flagSet("update")
	desc := fs.String("d", "", "replace the description")

	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) < 2 {
		return fmt.Errorf("%w: update needs a share URL and at least one file", ErrUsage)
	}

	files, err := filex.LoadFiles(pos[1:])
	if err != nil {
		return err
	}

	opts := paste.UpdateOptions{}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "d" {
			opts.Description = desc
		}
	})
	if opts.Password, err = GetPassword(a.reader, "Edit password", a.out); err != nil {
		return err
	}

	meta, err := a.paste.Update(ctx, pos[0], files, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "updated to version %d\n", meta.Version)
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	pos, err := parseArgs(a.flagSet("delete"), args)
	if err != nil {
		return err
	}
	url, err := oneURL("delete", pos)
	if err != nil {
		return err
	}

	pw, err := GetPassword(a.reader, "Edit password", a.out)
	if err != nil {
		return err
	}
	if err := a.paste.Delete(ctx, url, pw); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "deleted")
	return nil
}

func (a *App) versions(ctx context.Context, args []string) error {
	pos, err := parseArgs(a.flagSet("versions"), args)
	if err != nil {
		return err
	}
	url, err := oneURL("versions", pos)
	if err != nil {
		return err
	}

	vs, err := a.paste.Versions(ctx, url)
	if err != nil {
		return err
	}
	for i, v := range vs {
		mark := " "
		if i == 0 {
			mark = "*"
		}
		fmt.Fprintf(a.out, "%s %s %8d\n", mark, v.Timestamp, v.Size)
	}
	return nil
}

func (a *App) stats(ctx context.Context) error {
	st, err := a.gists.StorageStats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "documents: %d\nversions:  %d\nobjects:   %d\nbytes:     %d\n",
		st.MetadataObjects, st.VersionObjects, st.TotalObjects, st.TotalSize)
	return nil
}

func (a *App) sweep(ctx context.Context) error {
	start := time.Now()
	res, err := a.gists.CleanupExpiredGists(ctx, a.config.SweepBatchSize)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "checked %d, deleted %d, failed %d in %s\n",
		res.Checked, res.Deleted, res.Failed, time.Since(start).Round(time.Millisecond))
	return nil
}

func (a *App) genpass() error {
	pw, err := passwd.GenerateRandomPassword()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, pw)
	return nil
}
