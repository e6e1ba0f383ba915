package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Flush the system DNS caches",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := appInstance.Flusher.Flush(context.Background()); err != nil {
			return err
		}
		fmt.Println("DNS caches flushed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flushCmd)
}
