package cli

import (
	"github.com/spf13/cobra"
)

var tableCmd = &cobra.Command{
	Use:   "table [subtitle_file]",
	Short: "Build only the DOCX dialogue list",
	Long: `Build the dialogue list of a subtitle file without writing translated
subtitle files. Output languages add columns; they stay blank for manual
translation unless a --provider is given.

Examples:
  srtpack table movie.srt
  srtpack table movie.srt -i en -l de -l fr
  srtpack table movie.srt -l de --provider google --table-output list.docx`,
	Args: cobra.ExactArgs(1),
	RunE: runTable,
}

func init() {
	rootCmd.AddCommand(tableCmd)
	addRunFlags(tableCmd, "none")
}

func runTable(cmd *cobra.Command, args []string) error {
	opts, err := readRunOptions(cmd)
	if err != nil {
		return err
	}
	return execute(cmd.Context(), opts, args[0], true)
}
