package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/dshills/eslookup-mcp/internal/config"
	"github.com/dshills/eslookup-mcp/internal/mcp"
	"github.com/dshills/eslookup-mcp/internal/paging"
	"github.com/dshills/eslookup-mcp/internal/storage"
	"github.com/dshills/eslookup-mcp/pkg/types"
)

// initCommand writes the sample configuration
func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a commented sample configuration",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing configuration file",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.String("config")
			if _, err := os.Stat(path); err == nil && !c.Bool("force") {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveTemplate(path); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			fmt.Printf("Configuration initialized at %s\n", path)
			return nil
		},
	}
}

// serveCommand runs the MCP server on stdio
func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve lookup tools over MCP stdio",
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := newRuntime(ctx, c)
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(rt.searcher, rt.options,
				mcp.WithLogger(rt.logger),
				mcp.WithCloser(rt.Close))
			if err != nil {
				_ = rt.Close()
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			errChan := make(chan error, 1)
			go func() {
				errChan <- server.Serve(ctx)
			}()

			select {
			case sig := <-sigChan:
				rt.logger.Info("shutting down", zap.String("signal", sig.String()))
				cancel()
				return nil
			case err := <-errChan:
				return err
			}
		},
	}
}

// lookupCommand runs a batched lookup and prints the results as JSON
func lookupCommand() *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "Look up one or more entities",
		ArgsUsage: "<entity> [entity...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "index",
				Usage: "Index to search (overrides config)",
			},
			&cli.IntFlag{
				Name:  "page-size",
				Usage: "Hits returned per entity (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "private-ips",
				Usage: "Look up private IP addresses instead of skipping them",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			values := c.Args().Slice()
			if len(values) == 0 {
				return errors.New("at least one entity is required")
			}

			rt, err := newRuntime(ctx, c)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			opts := rt.options
			if idx := c.String("index"); idx != "" {
				opts.Index = idx
			}
			if size := c.Int("page-size"); size > 0 {
				opts.DefaultPageSize = size
			}
			if c.Bool("private-ips") {
				opts.SearchPrivateIPs = true
			}

			results, err := rt.searcher.Search(ctx, types.NewEntities(values), opts)
			if err != nil {
				return err
			}
			return writeJSON(os.Stdout, results)
		},
	}
}

// highlightsCommand runs the two-phase search for one entity
func highlightsCommand() *cli.Command {
	return &cli.Command{
		Name:      "highlights",
		Usage:     "Show one page of hits for an entity with highlights",
		ArgsUsage: "<entity>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "from",
				Usage: "Offset of the first hit",
			},
			&cli.StringSliceFlag{
				Name:  "id",
				Usage: "Only fetch highlights for these document ids",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return errors.New("exactly one entity is required")
			}
			entity := types.NewEntity(c.Args().First())

			rt, err := newRuntime(ctx, c)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			if ids := c.StringSlice("id"); len(ids) > 0 {
				highlights, err := rt.searcher.FetchHighlights(ctx, entity, ids, rt.options)
				if err != nil {
					return err
				}
				return writeJSON(os.Stdout, highlights)
			}

			block, err := rt.searcher.SearchEntity(ctx, entity, c.Int("from"), rt.options)
			if err != nil {
				return err
			}
			return writeJSON(os.Stdout, block)
		},
	}
}

// pageCommand prints the pagination state for a page
func pageCommand() *cli.Command {
	return &cli.Command{
		Name:  "page",
		Usage: "Compute pagination state",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "from",
				Usage: "Offset of the first hit",
			},
			&cli.IntFlag{
				Name:  "size",
				Usage: "Page size",
				Value: config.DefaultPageSize,
			},
			&cli.IntFlag{
				Name:     "total",
				Usage:    "Total number of results",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			page, err := paging.Compute(c.Int("from"), c.Int("size"), c.Int("total"))
			if err != nil {
				return err
			}
			return writeJSON(os.Stdout, page)
		},
	}
}

// validateCommand checks the configuration and reports every problem
func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate the configuration",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			errs := cfg.Validate()
			if len(errs) == 0 {
				fmt.Println("Configuration is valid")
				return nil
			}
			if err := writeJSON(os.Stdout, errs); err != nil {
				return err
			}
			return fmt.Errorf("configuration has %d invalid settings", len(errs))
		},
	}
}

// cacheCommand maintains the persistent result cache
func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or prune the sqlite result cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cache statistics",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := config.Load(c.String("config"))
					if err != nil {
						return fmt.Errorf("loading config: %w", err)
					}
					rc, err := openSQLiteCache(cfg.Cache)
					if err != nil {
						return err
					}
					defer func() { _ = rc.Close() }()

					stats, err := rc.Stats(ctx)
					if err != nil {
						return err
					}
					return writeJSON(os.Stdout, stats)
				},
			},
			{
				Name:  "prune",
				Usage: "Delete expired cache entries",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := config.Load(c.String("config"))
					if err != nil {
						return fmt.Errorf("loading config: %w", err)
					}
					rc, err := openSQLiteCache(cfg.Cache)
					if err != nil {
						return err
					}
					defer func() { _ = rc.Close() }()

					n, err := rc.Prune(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("Pruned %d expired entries\n", n)
					return nil
				},
			},
		},
	}
}

// versionCommand prints build information
func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(ctx context.Context, c *cli.Command) error {
			v := version
			if info, ok := debug.ReadBuildInfo(); ok && v == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
				v = info.Main.Version
			}
			fmt.Printf("eslookup %s\n", v)
			fmt.Printf("Build Time: %s\n", buildTime)
			fmt.Printf("MCP Server: %s %s\n", mcp.ServerName, mcp.ServerVersion)
			fmt.Printf("Build Mode: %s\n", storage.BuildMode)
			fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
