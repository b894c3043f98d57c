package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seranno/wayfarer"
	"github.com/seranno/wayfarer/internal/cli"
)

var readerCmd = &cobra.Command{
	Use:   "reader",
	Short: "Inspect and manage reader collections",
	Long:  `List, inspect, and remove the per-reader history collections held by the configured store.`,
}

var readerLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all readers with stored histories",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeStore, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		readers, err := svc.Readers(cmd.Context())
		if err != nil {
			return err
		}
		if len(readers) == 0 {
			fmt.Println("No readers found.")
			return nil
		}
		for _, r := range readers {
			fmt.Println("- " + r)
		}
		return nil
	},
}

var readerHistoryCmd = &cobra.Command{
	Use:   "history <reader>",
	Short: "Inspect a reader's path records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeStore, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		histories, err := svc.Histories(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		// Pretty print JSON
		data, err := json.MarshalIndent(histories, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var readerActivityCmd = &cobra.Command{
	Use:   "activity <reader>",
	Short: "Show a reader's recent visits",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		svc, closeStore, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		records, err := svc.Activity(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No activity recorded.")
			return nil
		}
		for _, rec := range records {
			fmt.Printf("%s  %s/%s\n", rec.Timestamp.Format("2006-01-02 15:04:05"), rec.Story, rec.Page)
		}
		return nil
	},
}

var readerRmCmd = &cobra.Command{
	Use:   "rm <reader>...",
	Short: "Remove one or more readers' collections",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeStore, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		hasError := false
		for _, readerID := range args {
			if err := svc.DeleteReader(cmd.Context(), readerID); err != nil {
				fmt.Printf("Error removing '%s': %v\n", readerID, err)
				hasError = true
			} else {
				fmt.Printf("Removed reader '%s'\n", readerID)
			}
		}
		if hasError {
			os.Exit(1)
		}
		return nil
	},
}

// openService builds a full service over the configured store.
func openService(cmd *cobra.Command) (*wayfarer.Service, func() error, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.BuildService(cfg, cli.QuietLogger(debug))
}

func init() {
	rootCmd.AddCommand(readerCmd)
	readerCmd.AddCommand(readerLsCmd)
	readerCmd.AddCommand(readerHistoryCmd)
	readerCmd.AddCommand(readerActivityCmd)
	readerCmd.AddCommand(readerRmCmd)

	readerActivityCmd.Flags().IntP("limit", "n", 20, "Maximum number of entries to show")
}
