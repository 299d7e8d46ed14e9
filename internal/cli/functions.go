package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var functionsJSON bool

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List loadable functions",
	Long: `List the functions found under the functions directory.

Names starting with _ or . are hidden, as are entries matching
functions.ignore. Functions are not loaded, so a listed function may
still fail to load when invoked.`,
	Args: cobra.NoArgs,
	RunE: runFunctions,
}

func init() {
	functionsCmd.Flags().BoolVar(&functionsJSON, "json", false, "Print the list as JSON")
	rootCmd.AddCommand(functionsCmd)
}

func runFunctions(cmd *cobra.Command, args []string) error {
	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	names, err := svc.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if functionsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string][]string{"functions": names})
	}

	if len(names) == 0 {
		fmt.Fprintf(out, "No functions found in %s\n", cfg.Functions.Path)
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}
