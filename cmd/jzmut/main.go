// jzmut is a corpus tool for the mutation engine.
//
// It loads a type schema, then generates, mutates and inspects corpus
// entries encoded in the engine's stable byte form.
//
// Usage:
//
//	jzmut gen    -s <schema> [-n count] [--seed n] <corpus-dir>
//	jzmut mutate -s <schema> [-n rounds] [--seed n] <corpus-dir>
//	jzmut show   -s <schema> <entry-file>...
//	jzmut repl   -s <schema> [--seed n]
//
// A .jzmut.json config file (JWCC) in the working directory can provide
// defaults for the schema path and seed.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/GratitechInc/jazzer/internal/cli"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	o := cli.NewIO(out, errOut)

	cfg, err := loadConfig(".")
	if err != nil {
		o.Errorln("error:", err)

		return 1
	}

	commands := []*cli.Command{
		genCommand(cfg),
		mutateCommand(cfg),
		showCommand(cfg),
		replCommand(cfg),
	}

	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(o, commands)

		return 0
	}

	name := args[0]
	for _, c := range commands {
		if c.Name() != name {
			continue
		}

		if err := c.Run(ctx, o, args[1:]); err != nil {
			o.Errorln("error:", err)

			return 1
		}

		return 0
	}

	o.Errorln("error: unknown command:", name)
	printUsage(o, commands)

	return 1
}

func printUsage(o *cli.IO, commands []*cli.Command) {
	o.Println("Usage: jzmut <command> [flags] [args]")
	o.Println()
	o.Println("Commands:")

	for _, c := range commands {
		o.Println(c.HelpLine())
	}

	o.Println()
	o.Println(fmt.Sprintf("Run 'jzmut <command> --help' for details. Config file: %s", configFileName))
}
