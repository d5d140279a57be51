package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/cardsheet/internal"
	"codeberg.org/snonux/cardsheet/internal/anki"
	"codeberg.org/snonux/cardsheet/internal/archive"
	"codeberg.org/snonux/cardsheet/internal/batch"
	"codeberg.org/snonux/cardsheet/internal/card"
	"codeberg.org/snonux/cardsheet/internal/clipboard"
	"codeberg.org/snonux/cardsheet/internal/search"
)

var (
	// ErrMalformedImport is returned by a strict import when a group of
	// lines does not end with an empty line
	ErrMalformedImport = errors.New("malformed clipboard import")

	// ErrNotConfigured is returned when an action lacks its collaborator
	ErrNotConfigured = errors.New("action not configured")
)

// Store reads and writes the whole deck table
type Store interface {
	Read(ctx context.Context) (card.Collection, error)
	Write(ctx context.Context, c card.Collection) error
}

// ImageFinder resolves card text to candidate image URLs
type ImageFinder interface {
	FindImages(ctx context.Context, text string) (search.Result, error)
}

// Translator translates the front of a card
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// HintFetcher returns a pronunciation hint for the front of a card
type HintFetcher interface {
	Fetch(ctx context.Context, word string) (string, error)
}

// ProgressSink receives short status messages; an empty message clears it
type ProgressSink interface {
	Report(msg string)
}

// ImportPolicy decides what happens to malformed clipboard groups
type ImportPolicy string

const (
	// PolicyWarn imports everything and reports malformed groups
	PolicyWarn ImportPolicy = "warn"
	// PolicyStrict rejects the import when any group is malformed
	PolicyStrict ImportPolicy = "strict"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatAPKG Format = "apkg"
)

// ParseFormat validates an export format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatAPKG:
		return f, nil
	case "":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv or apkg)", s)
}

// Options configures the bulk actions
type Options struct {
	SoundURL     string       // Sound endpoint template
	ImportPolicy ImportPolicy // Defaults to PolicyWarn
	OutputDir    string       // Export directory, defaults to the working directory
	DeckName     string       // Deck name of .apkg exports
}

// Option wires an optional collaborator
type Option func(*Processor)

// WithImageFinder sets the image search used by EnrichImages
func WithImageFinder(f ImageFinder) Option {
	return func(p *Processor) { p.images = f }
}

// WithTranslator sets the translator used by Translate
func WithTranslator(t Translator) Option {
	return func(p *Processor) { p.translator = t }
}

// WithHintFetcher sets the source of pronunciation hints used by FillHints
func WithHintFetcher(h HintFetcher) Option {
	return func(p *Processor) { p.hints = h }
}

// WithClipboard sets the text source used by Import
func WithClipboard(s clipboard.Source) Option {
	return func(p *Processor) { p.clipboard = s }
}

// WithProgress sets the sink for progress messages
func WithProgress(s ProgressSink) Option {
	return func(p *Processor) { p.progress = s }
}

type discard struct{}

func (discard) Report(string) {}

// Processor runs whole-table actions: it reads the collection, changes it
// in memory and writes it back
type Processor struct {
	store      Store
	opts       Options
	images     ImageFinder
	translator Translator
	hints      HintFetcher
	clipboard  clipboard.Source
	progress   ProgressSink
}

// NewProcessor creates a processor over a deck store
func NewProcessor(store Store, opts Options, options ...Option) *Processor {
	if opts.ImportPolicy == "" {
		opts.ImportPolicy = PolicyWarn
	}
	if opts.DeckName == "" {
		opts.DeckName = "cardsheet"
	}
	p := &Processor{
		store:     store,
		opts:      opts,
		clipboard: clipboard.System{},
		progress:  discard{},
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// ImportReport summarizes an import
type ImportReport struct {
	Added     int
	Malformed []batch.Group
}

// Import appends the cards found in the clipboard text to the table
func (p *Processor) Import(ctx context.Context) (ImportReport, error) {
	text, err := p.clipboard.ReadText(ctx)
	if err != nil {
		return ImportReport{}, fmt.Errorf("failed to read clipboard text: %w", err)
	}

	groups := batch.ParseClipboard(text)
	report := ImportReport{Malformed: batch.Malformed(groups)}
	if len(report.Malformed) > 0 {
		problems := make([]string, len(report.Malformed))
		for i, g := range report.Malformed {
			problems[i] = g.Problem()
		}
		if p.opts.ImportPolicy == PolicyStrict {
			return report, fmt.Errorf("%w: %s", ErrMalformedImport, strings.Join(problems, "; "))
		}
		for _, problem := range problems {
			slog.Default().Warn("malformed import group", slog.String("problem", problem))
		}
	}
	if len(groups) == 0 {
		return report, nil
	}

	c, err := p.store.Read(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to read cards: %w", err)
	}
	c = append(c, batch.Records(groups)...)
	if err := p.store.Write(ctx, c); err != nil {
		return report, fmt.Errorf("failed to write cards: %w", err)
	}

	report.Added = len(groups)
	return report, nil
}

// EnrichReport summarizes an enrichment run
type EnrichReport struct {
	Updated int
	Skipped int // Already set or no text
	NoMatch int
}

// EnrichImages sets the Image field of every record that has none to the
// best image found for its front or back text
func (p *Processor) EnrichImages(ctx context.Context, isFront bool) (EnrichReport, error) {
	if p.images == nil {
		return EnrichReport{}, fmt.Errorf("image search: %w", ErrNotConfigured)
	}

	c, err := p.store.Read(ctx)
	if err != nil {
		return EnrichReport{}, fmt.Errorf("failed to read cards: %w", err)
	}

	var report EnrichReport
	defer p.progress.Report("")

	for i := range c {
		if c[i].Image != "" {
			report.Skipped++
			continue
		}
		text := c[i].Side(isFront)
		if search.QueryText(c[i], isFront) == "" {
			report.Skipped++
			continue
		}

		p.progress.Report("Loading image for: " + text)
		res, err := p.images.FindImages(ctx, text)
		if err != nil {
			return report, fmt.Errorf("failed to search images for %q: %w", text, err)
		}
		best, ok := res.Best()
		if !ok {
			report.NoMatch++
			continue
		}
		c[i].Image = best
		report.Updated++
	}

	if err := p.store.Write(ctx, c); err != nil {
		return report, fmt.Errorf("failed to write cards: %w", err)
	}
	return report, nil
}

// EnrichSounds sets the Sound field of every record that has none to the
// sound URL of its front or back text
func (p *Processor) EnrichSounds(ctx context.Context, isFront bool) (EnrichReport, error) {
	if p.opts.SoundURL == "" {
		return EnrichReport{}, fmt.Errorf("sound url template: %w", ErrNotConfigured)
	}

	c, err := p.store.Read(ctx)
	if err != nil {
		return EnrichReport{}, fmt.Errorf("failed to read cards: %w", err)
	}

	var report EnrichReport
	for i := range c {
		if c[i].Sound != "" {
			report.Skipped++
			continue
		}
		c[i].Sound = search.SoundURL(c[i].Side(isFront), p.opts.SoundURL)
		report.Updated++
	}

	if err := p.store.Write(ctx, c); err != nil {
		return report, fmt.Errorf("failed to write cards: %w", err)
	}
	return report, nil
}

// Translate fills empty Back fields from the Front. Failed translations
// are logged and leave the record unchanged.
func (p *Processor) Translate(ctx context.Context) (EnrichReport, error) {
	if p.translator == nil {
		return EnrichReport{}, fmt.Errorf("translator: %w", ErrNotConfigured)
	}

	c, err := p.store.Read(ctx)
	if err != nil {
		return EnrichReport{}, fmt.Errorf("failed to read cards: %w", err)
	}

	var report EnrichReport
	for i := range c {
		front := search.StripMarkup(c[i].Front)
		if c[i].Back != "" || strings.TrimSpace(front) == "" {
			report.Skipped++
			continue
		}

		p.progress.Report("Translating: " + front)
		back, err := p.translator.Translate(ctx, front)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			slog.Default().Warn("translation failed", slog.String("front", front), slog.Any("error", err))
			report.NoMatch++
			continue
		}
		c[i].Back = back
		report.Updated++
	}
	p.progress.Report("")

	if err := p.store.Write(ctx, c); err != nil {
		return report, fmt.Errorf("failed to write cards: %w", err)
	}
	return report, nil
}

// FillHints fills empty Hint fields with the pronunciation of the Front.
// Failed lookups are logged and leave the record unchanged.
func (p *Processor) FillHints(ctx context.Context) (EnrichReport, error) {
	if p.hints == nil {
		return EnrichReport{}, fmt.Errorf("hint fetcher: %w", ErrNotConfigured)
	}

	c, err := p.store.Read(ctx)
	if err != nil {
		return EnrichReport{}, fmt.Errorf("failed to read cards: %w", err)
	}

	var report EnrichReport
	defer p.progress.Report("")

	for i := range c {
		front := strings.TrimSpace(search.StripMarkup(c[i].Front))
		if c[i].Hint != "" || front == "" {
			report.Skipped++
			continue
		}

		p.progress.Report("Fetching hint for: " + front)
		hint, err := p.hints.Fetch(ctx, front)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			slog.Default().Warn("hint lookup failed", slog.String("front", front), slog.Any("error", err))
			report.NoMatch++
			continue
		}
		c[i].Hint = hint
		report.Updated++
	}

	if err := p.store.Write(ctx, c); err != nil {
		return report, fmt.Errorf("failed to write cards: %w", err)
	}
	return report, nil
}

// ExportReport summarizes an export
type ExportReport struct {
	Path     string
	Archived string // Previous export moved out of the way, if any
	Exported int
}

// ExportPath returns the file an export in the given format writes to
func (p *Processor) ExportPath(format Format) string {
	name := anki.DefaultCSVFile
	if format == FormatAPKG {
		name = internal.SanitizeFilename(p.opts.DeckName) + ".apkg"
	}
	return filepath.Join(p.opts.OutputDir, name)
}

// Export writes the records that were not exported yet, then marks every
// record as exported
func (p *Processor) Export(ctx context.Context, format Format) (ExportReport, error) {
	c, err := p.store.Read(ctx)
	if err != nil {
		return ExportReport{}, fmt.Errorf("failed to read cards: %w", err)
	}
	pending := c.Pending()

	if p.opts.OutputDir != "" {
		if err := os.MkdirAll(p.opts.OutputDir, 0755); err != nil {
			return ExportReport{}, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	report := ExportReport{Path: p.ExportPath(format), Exported: len(pending)}
	if report.Archived, err = archive.ArchiveExport(report.Path); err != nil {
		return report, fmt.Errorf("failed to archive previous export: %w", err)
	}

	switch format {
	case FormatAPKG:
		err = anki.NewAPKGWriter(p.opts.DeckName).Write(report.Path, pending)
	default:
		err = anki.WriteCSVFile(report.Path, pending)
	}
	if err != nil {
		return report, fmt.Errorf("failed to write %s export: %w", format, err)
	}

	c.MarkExported()
	if err := p.store.Write(ctx, c); err != nil {
		return report, fmt.Errorf("failed to write cards: %w", err)
	}
	return report, nil
}
