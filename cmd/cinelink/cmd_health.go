package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check connectivity to TMDB and the snapshot store",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()
			allOK := true

			// Check the snapshot store
			st, err := newStore(ctx, logger)
			if err != nil {
				fmt.Printf("Store (%s): FAIL (%v)\n", cfg.Store.Backend, err)
				allOK = false
			} else {
				defer func() { _ = st.Close() }()
				if ix, loadErr := loadIndex(ctx, st, logger, false); loadErr != nil {
					fmt.Printf("Store (%s): FAIL (%v)\n", cfg.Store.Backend, loadErr)
					allOK = false
				} else {
					fmt.Printf("Store (%s): OK (%d movies)\n", cfg.Store.Backend, ix.Len())
				}
			}

			// Check TMDB
			client, err := newTMDB(logger)
			if err != nil {
				fmt.Printf("TMDB: FAIL (%v)\n", err)
				allOK = false
			} else if _, err := client.Genres(ctx); err != nil {
				fmt.Printf("TMDB: FAIL (%v)\n", err)
				allOK = false
			} else {
				fmt.Println("TMDB: OK")
			}

			if !allOK {
				return fmt.Errorf("one or more health checks failed")
			}
			return nil
		},
	}
}
