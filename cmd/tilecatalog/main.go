// tilecatalog - leaflet-providers catalog generator
//
// Usage:
//   tilecatalog generate [--out dir] [--raw-file leaflet-providers-raw.json]
//   tilecatalog normalize --raw-file leaflet-providers-raw.json
//   tilecatalog render --parsed-file leaflet-providers-parsed.json --provenance "commit ..."
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"tilecatalog/internal/catalog"
	"tilecatalog/internal/fetch"
	"tilecatalog/internal/normalize"
	"tilecatalog/internal/render"
	"tilecatalog/pkg/platform"
	"tilecatalog/pkg/provider"
)

// Fixed artifact names; paths are conventional, only the directory moves.
const (
	rawFileName    = "leaflet-providers-raw.json"
	parsedFileName = "leaflet-providers-parsed.json"
	sourceFileName = "providers_gen.go"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "tilecatalog",
		Usage:   "Scrape the leaflet-providers registry and generate catalog artifacts",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"TILECATALOG_LOG_LEVEL"},
			},
		}, generateFlags()...),

		Commands: []*cli.Command{
			generateCommand(),
			normalizeCommand(),
			renderCommand(),
			versionCommand(),
		},

		// Bare invocation runs the full pipeline.
		Action: runGenerate,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func generateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Value:   ".",
			Usage:   "Directory the artifacts are written to",
			EnvVars: []string{"TILECATALOG_OUT"},
		},
		&cli.StringFlag{
			Name:  "raw-file",
			Usage: "Read a cached raw registry dump instead of scraping",
		},
		&cli.StringFlag{
			Name:    "git-url",
			Value:   platform.GetEnv("TILECATALOG_GIT_URL", fetch.GitURL),
			Usage:   "Upstream leaflet-providers repository",
			EnvVars: []string{"TILECATALOG_GIT_URL"},
		},
		&cli.BoolFlag{
			Name:  "keep-clone",
			Value: platform.GetEnvBool("TILECATALOG_KEEP_CLONE", false),
			Usage: "Keep the clone directory instead of removing it",
		},
	}
}

func newLogger(c *cli.Context) zerolog.Logger {
	return platform.NewLogger(c.String("log-level")).
		With().Str("run_id", uuid.NewString()).Logger()
}

// =============================================================================
// GENERATE COMMAND
// =============================================================================

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:   "generate",
		Usage:  "Run the full fetch, normalize, render pipeline",
		Flags:  generateFlags(),
		Action: runGenerate,
	}
}

func runGenerate(c *cli.Context) error {
	log := newLogger(c)
	outDir := c.String("out")

	var (
		raw        *catalog.Raw
		provenance string
		err        error
	)
	if rawFile := c.String("raw-file"); rawFile != "" {
		raw, provenance, err = fetch.File(rawFile)
	} else {
		raw, provenance, err = fetch.New(c.String("git-url"), c.Bool("keep-clone"), log).Fetch(c.Context)
	}
	if err != nil {
		return fmt.Errorf("fetching provider registry: %w", err)
	}

	if err := writeFile(filepath.Join(outDir, rawFileName), raw.Bytes()); err != nil {
		return err
	}
	log.Info().Int("providers", raw.Len()).Str("file", rawFileName).Msg("raw registry written")

	cat, sum, err := normalizeRaw(raw)
	if err != nil {
		return err
	}
	log.Info().
		Int("providers", sum.Providers).
		Int("variants", sum.Variants).
		Int("records", sum.Records).
		Msg("registry normalized")

	// JSON carries no comments, so the snapshot identity goes to the console
	// instead of into the file.
	log.Info().Str("provenance", provenance).Msg("parsed registry generated from this upstream snapshot")

	parsed, err := render.JSON(cat)
	if err != nil {
		return fmt.Errorf("serializing parsed registry: %w", err)
	}
	if err := writeFile(filepath.Join(outDir, parsedFileName), parsed); err != nil {
		return err
	}
	log.Info().Str("file", parsedFileName).Msg("parsed registry written")

	source, err := render.NewGenerator().Source(cat, provenance)
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(outDir, sourceFileName), source); err != nil {
		return err
	}
	log.Info().Str("file", sourceFileName).Msg("providers source written")
	return nil
}

// =============================================================================
// NORMALIZE COMMAND
// =============================================================================

func normalizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "normalize",
		Usage: "Normalize a cached raw registry dump",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "raw-file",
				Value: rawFileName,
				Usage: "Raw registry dump to normalize",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   ".",
				Usage:   "Directory the parsed registry is written to",
			},
		},
		Action: func(c *cli.Context) error {
			log := newLogger(c)

			raw, provenance, err := fetch.File(c.String("raw-file"))
			if err != nil {
				return err
			}
			cat, sum, err := normalizeRaw(raw)
			if err != nil {
				return err
			}
			log.Info().
				Int("providers", sum.Providers).
				Int("records", sum.Records).
				Str("provenance", provenance).
				Msg("registry normalized")

			parsed, err := render.JSON(cat)
			if err != nil {
				return fmt.Errorf("serializing parsed registry: %w", err)
			}
			return writeFile(filepath.Join(c.String("out"), parsedFileName), parsed)
		},
	}
}

// =============================================================================
// RENDER COMMAND
// =============================================================================

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Render the generated providers source from a parsed registry dump",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "parsed-file",
				Value: parsedFileName,
				Usage: "Parsed registry dump to render",
			},
			&cli.StringFlag{
				Name:  "provenance",
				Value: "unspecified snapshot",
				Usage: "Upstream snapshot identity for the generated header",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   ".",
				Usage:   "Directory the generated source is written to",
			},
		},
		Action: func(c *cli.Context) error {
			log := newLogger(c)

			data, err := os.ReadFile(c.String("parsed-file"))
			if err != nil {
				return fmt.Errorf("reading parsed registry: %w", err)
			}
			cat, err := catalog.ParseNormalized(data)
			if err != nil {
				return err
			}
			source, err := render.NewGenerator().Source(cat, c.String("provenance"))
			if err != nil {
				return err
			}
			log.Info().Int("providers", cat.Len()).Msg("providers source rendered")
			return writeFile(filepath.Join(c.String("out"), sourceFileName), source)
		},
	}
}

// =============================================================================
// VERSION COMMAND
// =============================================================================

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "tilecatalog %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func normalizeRaw(raw *catalog.Raw) (provider.Bunch, normalize.Summary, error) {
	table, err := normalize.BuildAttributions(raw)
	if err != nil {
		return provider.Bunch{}, normalize.Summary{}, fmt.Errorf("building attribution table: %w", err)
	}
	cat, sum, err := normalize.New(table).Catalog(raw)
	if err != nil {
		return provider.Bunch{}, normalize.Summary{}, fmt.Errorf("normalizing registry: %w", err)
	}
	return cat, sum, nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
