package main

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/GratitechInc/jazzer/internal/cli"
	"github.com/GratitechInc/jazzer/internal/corpus"
	"github.com/GratitechInc/jazzer/internal/schema"
	"github.com/GratitechInc/jazzer/pkg/mutation"
)

var errSchemaRequired = errors.New("schema file is required (-s or config)")

// buildMutator loads the schema and constructs the root mutator.
func buildMutator(schemaPath string) (mutation.Mutator, error) {
	if schemaPath == "" {
		return nil, errSchemaRequired
	}

	ref, err := schema.Load(schemaPath)
	if err != nil {
		return nil, err
	}

	return mutation.NewEngine().Create(ref)
}

// corpusDirArg resolves the corpus directory from args or config.
func corpusDirArg(args []string, cfg Config) string {
	if len(args) > 0 {
		return args[0]
	}

	return cfg.CorpusDir
}

func genCommand(cfg Config) *cli.Command {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	schemaPath := flags.StringP("schema", "s", cfg.Schema, "type schema file (JWCC)")
	count := flags.IntP("count", "n", 16, "number of entries to generate")
	seed := flags.Uint64("seed", cfg.Seed, "PRNG seed")

	return &cli.Command{
		Flags: flags,
		Usage: "gen -s <schema> [flags] [corpus-dir]",
		Short: "seed a corpus with freshly initialized values",
		Exec: func(_ context.Context, o *cli.IO, args []string) error {
			m, err := buildMutator(*schemaPath)
			if err != nil {
				return err
			}

			d, err := corpus.Open(corpusDirArg(args, cfg))
			if err != nil {
				return err
			}
			defer func() { _ = d.Close() }()

			prng := mutation.NewPseudoRandom(*seed)

			for range *count {
				name, err := d.NextName()
				if err != nil {
					return err
				}

				out := mutation.NewWriter(nil)
				m.Write(m.Init(prng), out)

				if err := d.Write(name, out.Bytes()); err != nil {
					return err
				}
			}

			o.Printf("generated %d entries in %s\n", *count, d.Path())

			return nil
		},
	}
}

// ensureEntries fails with a helpful message when a corpus is empty.
func ensureEntries(d *corpus.Dir) ([]string, error) {
	entries, err := d.Entries()
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("corpus %s is empty, run 'jzmut gen' first", d.Path())
	}

	return entries, nil
}
