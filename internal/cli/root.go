package cli

import (
	"github.com/spf13/cobra"

	"fintrack/internal/buildinfo"
)

// NewRootCommand builds the fintrack-web command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "fintrack-web",
		Short: "Web front end for the fintrack expense API",
		Long: `fintrack-web serves the htmx dashboard for recording and browsing
expenses. Every read and write goes to the fintrack backend API.`,
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	root.AddCommand(newServeCommand())
	return root
}
