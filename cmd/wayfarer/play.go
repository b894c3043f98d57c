package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/seranno/wayfarer"
	"github.com/seranno/wayfarer/internal/cli"
	"github.com/seranno/wayfarer/internal/presentation/tui"
	"github.com/seranno/wayfarer/pkg/domain"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play <story>",
	Short: "Read a story interactively",
	Long: `Walks a story in the terminal, following links by choice number.
With --reader, the walk is recorded: the reader's paths extend, fork and
merge exactly as they would through the API.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		readerID, _ := cmd.Flags().GetString("reader")
		plain, _ := cmd.Flags().GetBool("plain")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// Interactive output owns stdout; logs would corrupt it.
		logger := cli.QuietLogger(debug)

		svc, closeStore, err := cli.BuildService(cfg, logger)
		if err != nil {
			return fmt.Errorf("error initializing wayfarer: %w", err)
		}
		defer closeStore()

		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()

		player := wayfarer.NewPlayer(
			cli.NewInterruptibleReader(os.Stdin, sc.Done()),
			os.Stdout,
		)
		player.ReaderID = readerID

		isTTY := term.IsTerminal(int(os.Stdout.Fd()))
		if isTTY && !plain {
			tui.PrintBanner(wayfarer.Version)
			player.Renderer = tui.NewRenderer()
		}

		err = player.Play(sc, svc, domain.StoryID(args[0]))
		return cli.HandleExecutionError(err)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("reader", "r", "", "Reader identity; empty plays as a guest")
	playCmd.Flags().Bool("plain", false, "Disable the banner and markdown rendering")
}
