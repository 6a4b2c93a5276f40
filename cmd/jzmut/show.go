package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/GratitechInc/jazzer/internal/cli"
	"github.com/GratitechInc/jazzer/pkg/mutation"
)

var errEntryRequired = errors.New("at least one entry file is required")

func showCommand(cfg Config) *cli.Command {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	schemaPath := flags.StringP("schema", "s", cfg.Schema, "type schema file (JWCC)")

	return &cli.Command{
		Flags: flags,
		Usage: "show -s <schema> <entry-file>...",
		Short: "decode entries and print their values",
		Exec: func(_ context.Context, o *cli.IO, args []string) error {
			if len(args) == 0 {
				return errEntryRequired
			}

			m, err := buildMutator(*schemaPath)
			if err != nil {
				return err
			}

			o.Println("shape:", mutation.DebugStringOf(m))

			for _, path := range args {
				data, err := os.ReadFile(path) //nolint:gosec // path is from caller
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}

				v := m.Read(mutation.NewReader(data))

				o.Printf("%s (%d bytes):\n", path, len(data))
				o.Println(" ", formatValue(v))
			}

			return nil
		},
	}
}

// formatValue renders an engine value for humans. Records and sequences
// print as bracketed lists, variants as tag:value, optionals as their value
// or "-".
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatValue(e)
		}

		return "[" + strings.Join(parts, ", ") + "]"
	case mutation.Tagged:
		return fmt.Sprintf("%d:%s", x.Tag, formatValue(x.Value))
	case mutation.Option:
		if !x.Present {
			return "-"
		}

		return formatValue(x.Value)
	case []byte:
		return fmt.Sprintf("0x%x", x)
	case string:
		return fmt.Sprintf("%q", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
