package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/cardsheet/internal/config"
	"codeberg.org/snonux/cardsheet/internal/logging"
	"codeberg.org/snonux/cardsheet/internal/processor"
	"codeberg.org/snonux/cardsheet/internal/sheet"
)

// session is one command run against an open workbook
type session struct {
	cfg   *config.Config
	grid  *sheet.XLSX
	store *sheet.Store
	out   *printer
}

// loadConfig merges file, environment and the flags set on cmd and
// configures logging
func loadConfig(cmd *cobra.Command, flags *Flags) (*config.ConfigLoader, *config.Config, error) {
	loader, err := config.NewConfigLoader(flags.CfgFile)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := loader.Load(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return loader, cfg, nil
}

// openSession opens the workbook at path and resolves the option cells
// listed in required
func openSession(cmd *cobra.Command, flags *Flags, path string, required ...string) (*session, error) {
	loader, cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return nil, err
	}

	grid, err := sheet.OpenXLSX(path)
	if err != nil {
		return nil, err
	}
	if cfg.Sheet.Name != "" {
		if err := grid.SetActiveSheet(cfg.Sheet.Name); err != nil {
			_ = grid.Close()
			return nil, err
		}
	}
	if err := loader.LoadOptions(cmd.Context(), grid, cfg, required...); err != nil {
		_ = grid.Close()
		return nil, err
	}

	return &session{
		cfg:   cfg,
		grid:  grid,
		store: sheet.NewStore(grid),
		out:   newPrinter(cmd.OutOrStdout()),
	}, nil
}

func (s *session) Close() error {
	return s.grid.Close()
}

func (s *session) processor(options ...processor.Option) *processor.Processor {
	opts := processor.Options{
		SoundURL:     s.cfg.Search.SoundURL,
		ImportPolicy: processor.ImportPolicy(s.cfg.Import.Policy),
		OutputDir:    s.cfg.Export.OutputDir,
		DeckName:     s.cfg.Export.DeckName,
	}
	options = append([]processor.Option{processor.WithProgress(s.out)}, options...)
	return processor.NewProcessor(s.store, opts, options...)
}

func (s *session) reportEnrich(what string, r processor.EnrichReport) {
	s.out.Success("%s: %d updated, %d skipped", what, r.Updated, r.Skipped)
	if r.NoMatch > 0 {
		s.out.Warn("%s: %d without result", what, r.NoMatch)
	}
}

func side(back bool) string {
	if back {
		return "back"
	}
	return "front"
}

func wrapRun(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}
