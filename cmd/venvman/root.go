package main

import (
	"github.com/spf13/cobra"

	"github.com/venvman/venvman/internal/messages"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newCreateCmd())
	return cmd
}
