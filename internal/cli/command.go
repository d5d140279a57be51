package cli

import (
	"time"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/cardsheet/internal"
	"codeberg.org/snonux/cardsheet/internal/clipboard"
	"codeberg.org/snonux/cardsheet/internal/config"
	"codeberg.org/snonux/cardsheet/internal/models"
	"codeberg.org/snonux/cardsheet/internal/phonetic"
	"codeberg.org/snonux/cardsheet/internal/processor"
	"codeberg.org/snonux/cardsheet/internal/search"
	"codeberg.org/snonux/cardsheet/internal/translation"
)

// CreateRootCommand creates the root cobra command with all subcommands
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cardsheet",
		Short: "Flashcard authoring on top of a spreadsheet table",
		Long: `cardsheet maintains flashcards kept in a table of an .xlsx workbook.

The table needs the header Front, Back, Image, Hint, Context, Sound, Exported.
Image and sound URL templates are read from the cells LANG_IMG_URL and
LANG_SOUND_URL of the options sheet unless configured otherwise.

Examples:
  cardsheet import --from words.txt deck.xlsx   # Append cards from a file
  cardsheet images deck.xlsx                    # Find images for the fronts
  cardsheet sounds deck.xlsx                    # Set pronunciation URLs
  cardsheet export --format apkg deck.xlsx      # Export new cards for Anki
  cardsheet browse deck.xlsx                    # Preview images, play sounds`,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, flags)

	rootCmd.AddCommand(
		newImportCommand(flags),
		newImagesCommand(flags),
		newSoundsCommand(flags),
		newTranslateCommand(flags),
		newHintsCommand(flags),
		newExportCommand(flags),
		newBrowseCommand(flags),
		newModelsCommand(flags),
	)
	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.cardsheet.yaml)")
	pf.StringVarP(&flags.Sheet, "sheet", "s", "", "sheet holding the card table (default is the active sheet)")
	pf.StringVar(&flags.PreviewCell, "preview-cell", "", "cell for image previews (default is row 1 of the Image column)")
	pf.StringVar(&flags.ImageURL, "image-url", "", "image search endpoint, overrides LANG_IMG_URL")
	pf.StringVar(&flags.SoundURL, "sound-url", "", "sound URL template, overrides LANG_SOUND_URL")
	pf.Duration("timeout", 30*time.Second, "image search request timeout")
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "log level: debug, info, warn, error")
	pf.StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "log format: text or json")
}

func newImportCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import WORKBOOK",
		Short: "Append cards from the clipboard",
		Long: `Append cards from the clipboard, a file or stdin (--from -).

Every card is three lines: front, back and an empty separator line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			src := clipboard.Open(flags.From, cmd.InOrStdin())
			report, err := s.processor(processor.WithClipboard(src)).Import(cmd.Context())
			for _, g := range report.Malformed {
				s.out.Warn("%s", g.Problem())
			}
			if err != nil {
				return wrapRun("import", err)
			}
			s.out.Success("Imported %d cards", report.Added)
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.From, "from", "", "read from a file instead of the clipboard, - for stdin")
	cmd.Flags().BoolVar(&flags.Strict, "strict", false, "reject the import when a card is malformed")
	return cmd
}

func newImagesCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images WORKBOOK",
		Short: "Fill empty Image cells from the image search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, args[0], config.OptionImageURL)
			if err != nil {
				return err
			}
			defer s.Close()

			searcher, err := search.NewSearcher(search.Config{
				ImageURL: s.cfg.Search.ImageURL,
				Timeout:  s.cfg.Search.Timeout,
			})
			if err != nil {
				return wrapRun("images", err)
			}
			report, err := s.processor(processor.WithImageFinder(searcher)).EnrichImages(cmd.Context(), !flags.Back)
			if err != nil {
				return wrapRun("images", err)
			}
			s.reportEnrich("Images ("+searcher.Provider()+", "+side(flags.Back)+")", report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&flags.Back, "back", false, "search with the Back text instead of the Front")
	return cmd
}

func newSoundsCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sounds WORKBOOK",
		Short: "Fill empty Sound cells from the sound URL template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, args[0], config.OptionSoundURL)
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := s.processor().EnrichSounds(cmd.Context(), !flags.Back)
			if err != nil {
				return wrapRun("sounds", err)
			}
			s.reportEnrich("Sounds ("+side(flags.Back)+")", report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&flags.Back, "back", false, "use the Back text instead of the Front")
	return cmd
}

func newTranslateCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "translate WORKBOOK",
		Short: "Fill empty Back cells with a translation of the Front",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			tr, err := translation.NewTranslator(translation.Config{
				APIKey:  s.cfg.OpenAI.APIKey,
				BaseURL: s.cfg.OpenAI.BaseURL,
				Model:   s.cfg.OpenAI.Model,
				From:    s.cfg.OpenAI.From,
				To:      s.cfg.OpenAI.To,
			})
			if err != nil {
				return wrapRun("translate", err)
			}
			report, err := s.processor(processor.WithTranslator(tr)).Translate(cmd.Context())
			if err != nil {
				return wrapRun("translate", err)
			}
			s.reportEnrich("Translations", report)
			return nil
		},
	}
}

func newHintsCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "hints WORKBOOK",
		Short: "Fill empty Hint cells with the IPA transcription of the Front",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			fetcher, err := phonetic.NewFetcher(phonetic.Config{
				APIKey:   s.cfg.OpenAI.APIKey,
				BaseURL:  s.cfg.OpenAI.BaseURL,
				Model:    s.cfg.OpenAI.Model,
				Language: s.cfg.OpenAI.From,
			})
			if err != nil {
				return wrapRun("hints", err)
			}
			report, err := s.processor(processor.WithHintFetcher(fetcher)).FillHints(cmd.Context())
			if err != nil {
				return wrapRun("hints", err)
			}
			s.reportEnrich("Hints", report)
			return nil
		},
	}
}

func newExportCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export WORKBOOK",
		Short: "Export cards not exported yet and mark them exported",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			format, err := processor.ParseFormat(s.cfg.Export.Format)
			if err != nil {
				return wrapRun("export", err)
			}
			report, err := s.processor().Export(cmd.Context(), format)
			if err != nil {
				return wrapRun("export", err)
			}
			if report.Archived != "" {
				s.out.Plain("Previous export moved to %s", report.Archived)
			}
			s.out.Success("Exported %d cards to %s", report.Exported, report.Path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&flags.Format, "format", "f", flags.Format, "export format: csv or apkg")
	cmd.Flags().StringVarP(&flags.OutputDir, "output", "o", flags.OutputDir, "output directory")
	cmd.Flags().StringVar(&flags.DeckName, "deck-name", flags.DeckName, "deck name for apkg exports")
	return cmd
}

func newModelsCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the OpenAI chat models usable for translate and hints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			lister, err := models.NewLister(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
			if err != nil {
				return wrapRun("models", err)
			}
			catalog, err := lister.List(cmd.Context())
			if err != nil {
				return wrapRun("models", err)
			}
			catalog.Print(cmd.OutOrStdout())
			return nil
		},
	}
}
