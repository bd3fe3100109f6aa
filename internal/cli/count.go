package cli

import (
	"flag"
	"fmt"
	"io"

	"typobench/internal/question"
)

// runCount builds the handler for the count command.
func runCount(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		flags.SetOutput(stderr)
		rowsField := flags.String("rows-field", "rows", "Top-level field holding the rows array")
		verbose := flags.Bool("verbose", false, "List skipped row errors")
		if err := flags.Parse(args); err != nil {
			fmt.Fprintf(stderr, "invalid arguments: %v\n", err)
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}
		if flags.NArg() != 1 {
			fmt.Fprintln(stderr, "expected exactly one dataset path")
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}

		path := flags.Arg(0)
		stats, err := question.Count(path, *rowsField)
		if err != nil {
			fmt.Fprintf(stderr, "Count failed: %v\n", err)
			return ExitError
		}
		fmt.Fprintf(stdout, "%s: %d rows, %d skipped\n", path, stats.Emitted, stats.Skipped)
		if *verbose {
			for _, rowErr := range stats.Errors {
				fmt.Fprintf(stdout, "  %v\n", rowErr)
			}
		}
		return ExitOK
	}
}
