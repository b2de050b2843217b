package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/mindpal/backend/internal/storage"
)

var (
	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Delete every persisted slot (messages, moods, stats, settings)",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			logger.Info().Msg("all data cleared")
			return nil
		},
	}

	exportCmd = &cobra.Command{
		Use:   "export <file>",
		Short: "Write a compressed snapshot of every slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := storage.Export(store, args[0], time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d slots to %s\n", n, args[0])
			return nil
		},
	}

	importCmd = &cobra.Command{
		Use:   "import <file>",
		Short: "Restore slots from a snapshot written by export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := storage.Import(store, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d slots from %s\n", n, args[0])
			return nil
		},
	}
)
