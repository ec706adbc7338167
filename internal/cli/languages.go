package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/srtpack/internal/language"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the common output language codes",
	Long: `List the language codes offered by default. Other BCP 47 codes are
passed through to the translation provider as given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(renderLanguages(language.Supported()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}

func renderLanguages(codes []string) string {
	rows := make([][]string, 0, len(codes))
	for _, code := range codes {
		rows = append(rows, []string{code, language.DisplayName(code)})
	}
	return renderTable([]string{"Code", "Language"}, rows, nil)
}
