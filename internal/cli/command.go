// Package cli provides the command plumbing for the jzmut corpus tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command defines a CLI command with unified help generation.
type Command struct {
	// Flags defines command-specific flags.
	// The FlagSet name is not used - command identity comes from Usage.
	Flags *flag.FlagSet

	// Usage is the freeform usage string shown after "jzmut" in help.
	// Includes the command name and arguments/flags.
	// Examples: "gen -s <schema> [flags] <corpus-dir>", "repl -s <schema>"
	Usage string

	// Short is a one-line description for the global help listing.
	Short string

	// Long is the full description shown in command help.
	// If empty, Short is used instead.
	Long string

	// Exec runs the command after flags are parsed.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the short help line for the main usage display.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-34s %s", c.Usage, c.Short)
}

// PrintHelp prints the full help output for "jzmut <cmd> --help".
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: jzmut", c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")
		o.Print(c.Flags.FlagUsages())
	}
}

// Run parses flags and executes the command.
func (c *Command) Run(ctx context.Context, o *IO, args []string) error {
	if c.Flags != nil {
		c.Flags.Usage = func() { c.PrintHelp(o) }

		if err := c.Flags.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil
			}

			return fmt.Errorf("%s: %w", c.Name(), err)
		}

		args = c.Flags.Args()
	}

	return c.Exec(ctx, o, args)
}
