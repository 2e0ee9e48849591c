package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eringen/blogcontent"
	"github.com/eringen/blogcontent/content"
	"github.com/eringen/blogcontent/post"
	"github.com/eringen/blogcontent/scaffold"
	"github.com/eringen/blogcontent/views"
)

// openApp loads the config named by the -config flag and opens the app
// without serving.
func openApp(ctx context.Context, configPath string) (*blogcontent.App, error) {
	cfg, err := blogcontent.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	app := blogcontent.New(cfg, views.Default())
	if err := app.Open(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", blogcontent.EnvOr("BLOGCONTENT_CONFIG", ""), "path to a YAML config file")
	fs.Parse(args)

	cfg, err := blogcontent.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	app := blogcontent.New(cfg, views.Default())
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}

func runSync(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	configPath := fs.String("config", blogcontent.EnvOr("BLOGCONTENT_CONFIG", ""), "path to a YAML config file")
	fs.Parse(args)

	ctx := context.Background()
	app, err := openApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer app.Close()

	run, err := app.Sync(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Synced %d documents in %s\n", run.Documents, run.Duration.Round(time.Millisecond))
	for name, n := range run.Collections {
		fmt.Printf("  %-12s %d\n", name, n)
	}
	for _, w := range run.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	return nil
}

func runQuery(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", blogcontent.EnvOr("BLOGCONTENT_CONFIG", ""), "path to a YAML config file")
	collection := fs.String("collection", blogcontent.BlogCollection, "collection to query")
	fs.Parse(args)
	if fs.NArg() > 1 {
		return errors.New("query takes a single params argument")
	}

	params, err := content.ParseParams(fs.Arg(0))
	if err != nil {
		return err
	}

	ctx := context.Background()
	app, err := openApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer app.Close()

	recs, err := app.Store.Records(ctx, *collection)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(post.NormalizeAll(params.Apply(recs)))
}

func runNew(dir string) error {
	fmt.Printf("Creating new blogcontent site: %s\n\n", dir)
	if err := scaffold.Generate(dir, scaffold.NewData(dir), os.Stdout); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("Done! Next steps:")
	fmt.Println()
	fmt.Printf("  cd %s\n", dir)
	fmt.Println("  blogcontent serve -config config.yaml")
	fmt.Println()
	fmt.Println("Set ADMIN_PASSWORD and SESSION_SECRET in .env to enable /admin/.")
	return nil
}
