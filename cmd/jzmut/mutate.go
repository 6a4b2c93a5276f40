package main

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/GratitechInc/jazzer/internal/cli"
	"github.com/GratitechInc/jazzer/internal/corpus"
	"github.com/GratitechInc/jazzer/pkg/mutation"
)

func mutateCommand(cfg Config) *cli.Command {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	schemaPath := flags.StringP("schema", "s", cfg.Schema, "type schema file (JWCC)")
	rounds := flags.IntP("rounds", "n", 100, "number of mutation rounds")
	seed := flags.Uint64("seed", cfg.Seed, "PRNG seed")

	return &cli.Command{
		Flags: flags,
		Usage: "mutate -s <schema> [flags] [corpus-dir]",
		Short: "grow a corpus by mutating existing entries",
		Long: "Each round picks a random entry, decodes it, mutates the value " +
			"and appends the re-encoded neighbor as a new entry.",
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

			entries, err := ensureEntries(d)
			if err != nil {
				return err
			}

			prng := mutation.NewPseudoRandom(*seed)

			for range *rounds {
				source := mutation.PickIn(prng, entries)

				data, err := d.Read(source)
				if err != nil {
					return err
				}

				v := m.Read(mutation.NewReader(data))
				v = m.Mutate(v, prng)

				out := mutation.NewWriter(nil)
				m.Write(v, out)

				name, err := d.NextName()
				if err != nil {
					return err
				}

				if err := d.Write(name, out.Bytes()); err != nil {
					return err
				}

				entries = append(entries, name)
			}

			o.Printf("added %d entries, corpus now has %d\n", *rounds, len(entries))

			return nil
		},
	}
}
