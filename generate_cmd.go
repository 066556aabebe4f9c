package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		theme  string
		slots  int
		images bool
	)

	cmd := &cobra.Command{
		Use:   "generate [text...]",
		Short: "Deal one board and print it as JSON",
		Long: `Deal one board from the Hanzi in the arguments and print it as JSON.
Pinyin and images come from the configured AI backend; without one the
pinyin is left blank and only the default theme has pictures.`,
		Example: `  hanzibox generate 汉字盲盒
  hanzibox generate --theme sanrio --images 天空 学校`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := ParseTheme(theme)
			if err != nil {
				return err
			}
			if slots < 1 || slots > maxSlots {
				return fmt.Errorf("--slots must be between 1 and %d", maxSlots)
			}

			backend, release, err := newBackend(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer release()

			themes, err := LoadThemeTable(a.cfg.ThemesFile)
			if err != nil {
				return err
			}

			board, err := generateBoard(cmd.Context(), strings.Join(args, ""), t, slots, images, backend, themes, a)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(board)
		},
	}
	cmd.Flags().StringVarP(&theme, "theme", "t", string(DefaultTheme), "board theme")
	cmd.Flags().IntVarP(&slots, "slots", "n", defaultSlots, "number of cards")
	cmd.Flags().BoolVar(&images, "images", false, "wait for generated surprise images")
	return cmd
}

// generateBoard runs the same pipeline as the server, on a throwaway session.
func generateBoard(ctx context.Context, text string, theme Theme, slots int, images bool, backend Backend, themes ThemeTable, a *app) (*Board, error) {
	chars := ExtractHanzi(text)
	pairs := transliterate(ctx, backend.Transliterator, chars, a.logger)

	sess := NewStore().CreateSession(theme, true)
	board := NewBoard(pairs, theme, slots, nil)
	snapshot := board.clone()
	batchCtx := sess.Install(ctx, board)
	defer sess.Close()

	if images && !theme.HasStockImages() {
		if backend.Images == nil {
			return nil, fmt.Errorf("--images needs a configured AI backend")
		}
		res := NewImageFiller(backend.Images, themes, a.logger).Fill(batchCtx, snapshot, func(itemID, url string) bool {
			return sess.AttachImage(snapshot.ID, itemID, url)
		})
		a.logger.Info("images generated", "filled", res.Filled, "failed", res.Failed)
	}
	return sess.Board(), nil
}
