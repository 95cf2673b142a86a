package cmd

import (
	"fmt"

	"github.com/bronystylecrazy/layertrace/build"
	"github.com/spf13/cobra"
)

type VersionCommand struct{}

func NewVersionCommand() *VersionCommand {
	return &VersionCommand{}
}

func (s *VersionCommand) Command() *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print build version information",
		SilenceErrors: true,
		RunE:          s.Run,
	}
}

func (s *VersionCommand) Run(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	_, err := fmt.Fprintf(
		out,
		"%s\n  Version   %s\n  Commit    %s\n  BuildDate %s\n  Mode      %s\n",
		build.Name,
		build.Version,
		build.Commit,
		build.BuildDate,
		build.Mode,
	)
	return err
}
