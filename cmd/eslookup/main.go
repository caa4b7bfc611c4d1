package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dshills/eslookup-mcp/internal/config"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// stdout is reserved for the MCP protocol and command output
	log.SetOutput(os.Stderr)

	app := &cli.Command{
		Name:  "eslookup",
		Usage: "Look up indicators in Elasticsearch, as a CLI or an MCP server",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(),
			},
		},
		Commands: []*cli.Command{
			initCommand(),
			serveCommand(),
			lookupCommand(),
			highlightsCommand(),
			pageCommand(),
			validateCommand(),
			cacheCommand(),
			versionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.DefaultPath()
	if err != nil {
		log.Fatalf("Failed to get default config path: %v", err)
	}
	return path
}
