package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/conneroisu/srcguard/internal/patterns"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List the risk detectors",
	Long: `List every detector in the order it is applied, with the report name of
its issue kind and the expression it matches.

Examples:
  srcguard patterns
  srcguard patterns --format yaml`,
	Args: cobra.NoArgs,
	RunE: runPatterns,
}

var patternsFormat string

func init() {
	rootCmd.AddCommand(patternsCmd)

	patternsCmd.Flags().StringVarP(&patternsFormat, "format", "f", "text", "Output format (text, yaml)")
}

type patternEntry struct {
	Kind        string `yaml:"kind"`
	Description string `yaml:"description"`
	Expression  string `yaml:"expression"`
}

func runPatterns(cmd *cobra.Command, args []string) error {
	return writePatterns(cmd.OutOrStdout(), patterns.Default(), patternsFormat)
}

func writePatterns(w io.Writer, c *patterns.Catalogue, format string) error {
	entries := make([]patternEntry, 0, len(c.Patterns()))
	for _, p := range c.Patterns() {
		entries = append(entries, patternEntry{
			Kind:        p.Kind.String(),
			Description: p.Description,
			Expression:  p.Expr,
		})
	}

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string][]patternEntry{"patterns": entries}); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KIND\tDESCRIPTION")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\n", e.Kind, e.Description)
			fmt.Fprintf(tw, "\t  %s\n", e.Expression)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, yaml)", format)
	}
}
