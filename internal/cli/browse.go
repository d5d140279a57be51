package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/cardsheet/internal/audio"
	"codeberg.org/snonux/cardsheet/internal/dispatch"
	"codeberg.org/snonux/cardsheet/internal/sheet"
)

func newBrowseCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse WORKBOOK",
		Short: "Preview images and play sounds of selected cells",
		Long: `Read cell references such as D4 or Deck!G7 from stdin and select them.

Selecting an Image cell writes an IMAGE formula for it into the preview
cell, selecting a Sound cell plays it. An empty line is ignored, q quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			var player audio.Player
			cp, err := audio.NewCommandPlayer(s.cfg.Audio.Player)
			switch {
			case errors.Is(err, audio.ErrNoPlayer):
				s.out.Warn("%v, sound cells are ignored", err)
			case err != nil:
				return wrapRun("browse", err)
			default:
				player = cp
				slog.Default().Debug("using audio player", slog.String("player", cp.Name()))
			}

			var opts []dispatch.Option
			row, col, ok, err := s.cfg.PreviewAnchor()
			if err != nil {
				return wrapRun("browse", err)
			}
			if ok {
				opts = append(opts, dispatch.WithAnchor(dispatch.Anchor{Row: row, Column: col}))
			}

			d := dispatch.New(s.grid, player, opts...)
			if err := d.Bind(cmd.Context()); err != nil {
				return wrapRun("browse", err)
			}
			if len(d.Bound()) == 0 {
				return wrapRun("browse", sheet.ErrNoTableFound)
			}
			s.out.Plain("Watching %s", strings.Join(d.Bound(), ", "))

			loopErr := browse(cmd, s, cmd.InOrStdin())
			return errors.Join(loopErr, d.Shutdown())
		},
	}
	cmd.Flags().StringVar(&flags.Player, "player", "", "audio command: mpg123, ffplay or mpv (default is the first installed)")
	return cmd
}

// browse selects every cell reference read from r until EOF or q
func browse(cmd *cobra.Command, s *session, r io.Reader) error {
	ctx := cmd.Context()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "q", "quit":
			return nil
		}

		sheetName, cell := sheet.SplitAddress(line)
		if sheetName == "" {
			active, err := s.grid.ActiveSheet(ctx)
			if err != nil {
				return fmt.Errorf("failed to read active sheet: %w", err)
			}
			sheetName = active
		}
		if err := s.grid.Select(ctx, sheetName, cell); err != nil {
			s.out.Warn("%s: %v", line, err)
			continue
		}
		s.out.Plain("%s!%s", sheet.QuoteSheet(sheetName), strings.ToUpper(cell))
	}
	return scanner.Err()
}
