// Package fetch obtains the raw provider registry. It is glue around two
// external collaborators, a git clone and a headless browser, and exposes
// only the (raw catalog, provenance) contract the rest of the pipeline
// consumes.
package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chromedp/chromedp"
	git "github.com/go-git/go-git/v5"
	"github.com/rs/zerolog"

	"tilecatalog/internal/catalog"
)

// GitURL is the upstream leaflet-providers repository.
const GitURL = "https://github.com/leaflet-extras/leaflet-providers.git"

// providersExpr extracts the registry the upstream demo page assembles.
const providersExpr = "JSON.stringify(L.TileLayer.Provider.providers)"

// Fetcher clones the upstream repository and evaluates its demo page in a
// headless browser to capture the provider registry as JSON.
type Fetcher struct {
	gitURL    string
	keepClone bool
	log       zerolog.Logger
}

// New returns a Fetcher for gitURL; an empty gitURL means upstream. With
// keepClone the clone directory survives the run, for debugging the
// upstream page.
func New(gitURL string, keepClone bool, log zerolog.Logger) *Fetcher {
	if gitURL == "" {
		gitURL = GitURL
	}
	return &Fetcher{gitURL: gitURL, keepClone: keepClone, log: log}
}

// Fetch performs one clone-and-extract pass. The clone lives in a temp
// directory that is released before Fetch returns, success or not, unless
// the Fetcher keeps clones; callers never observe it either way. Any
// failure is fatal, there is no retry.
func (f *Fetcher) Fetch(ctx context.Context) (*catalog.Raw, string, error) {
	dir, err := os.MkdirTemp("", "leaflet-providers-*")
	if err != nil {
		return nil, "", fmt.Errorf("creating clone dir: %w", err)
	}
	defer f.cleanup(dir)

	f.log.Info().Str("url", f.gitURL).Msg("cloning leaflet-providers")
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:   f.gitURL,
		Depth: 1,
	})
	if err != nil {
		return nil, "", fmt.Errorf("cloning %s: %w", f.gitURL, err)
	}

	provenance, err := headProvenance(repo)
	if err != nil {
		return nil, "", err
	}
	f.log.Info().Str("provenance", provenance).Msg("clone complete")

	data, err := f.extract(ctx, filepath.Join(dir, "index.html"))
	if err != nil {
		return nil, "", err
	}

	raw, err := catalog.ParseRaw(data)
	if err != nil {
		return nil, "", fmt.Errorf("parsing scraped registry: %w", err)
	}
	f.log.Info().Int("providers", raw.Len()).Msg("registry scraped")
	return raw, provenance, nil
}

// cleanup releases the clone directory, or reports where it was retained.
func (f *Fetcher) cleanup(dir string) {
	if f.keepClone {
		f.log.Info().Str("dir", dir).Msg("clone directory retained")
		return
	}
	os.RemoveAll(dir)
}

// extract loads the demo page in a headless browser and evaluates the
// registry expression.
func (f *Fetcher) extract(ctx context.Context, indexPath string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("allow-file-access-from-files", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var out string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+indexPath),
		chromedp.Evaluate(providersExpr, &out),
	)
	if err != nil {
		return nil, fmt.Errorf("evaluating provider registry: %w", err)
	}
	return []byte(out), nil
}

// headProvenance renders the HEAD commit as a human-readable snapshot
// identity, "commit <hash> (<message>)".
func headProvenance(repo *git.Repository) (string, error) {
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("reading HEAD commit: %w", err)
	}
	message := strings.TrimSpace(commit.Message)
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		message = strings.TrimSpace(message[:i])
	}
	return fmt.Sprintf("commit %s (%s)", head.Hash(), message), nil
}

// File reads a previously dumped raw registry, bypassing the live scrape.
func File(path string) (*catalog.Raw, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading raw registry: %w", err)
	}
	raw, err := catalog.ParseRaw(data)
	if err != nil {
		return nil, "", fmt.Errorf("parsing raw registry %s: %w", path, err)
	}
	return raw, fmt.Sprintf("cached file %s", filepath.Base(path)), nil
}
