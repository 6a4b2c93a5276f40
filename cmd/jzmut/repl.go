package main

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/GratitechInc/jazzer/internal/cli"
	"github.com/GratitechInc/jazzer/pkg/mutation"
)

const replHelp = `Commands:
  init               generate a fresh value
  mutate [n]         mutate the current value n times (default 1)
  read <hex>         decode a value from hex bytes
  write              print the current value's encoding as hex
  detach             replace the current value with an independent copy
  debug              print the mutator shape
  seed <n>           reseed the PRNG
  help               show this help
  exit / quit / q    leave the REPL`

func replCommand(cfg Config) *cli.Command {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	schemaPath := flags.StringP("schema", "s", cfg.Schema, "type schema file (JWCC)")
	seed := flags.Uint64("seed", cfg.Seed, "PRNG seed")

	return &cli.Command{
		Flags: flags,
		Usage: "repl -s <schema> [flags]",
		Short: "interactively step through mutations",
		Exec: func(_ context.Context, o *cli.IO, _ []string) error {
			m, err := buildMutator(*schemaPath)
			if err != nil {
				return err
			}

			r := &repl{
				o:    o,
				m:    m,
				prng: mutation.NewPseudoRandom(*seed),
			}

			return r.loop()
		},
	}
}

type repl struct {
	o    *cli.IO
	m    mutation.Mutator
	prng mutation.PseudoRandom

	value    any
	hasValue bool
}

func (r *repl) loop() error {
	line := liner.NewLiner()
	defer func() { _ = line.Close() }()

	line.SetCtrlCAborts(true)

	r.o.Println("shape:", mutation.DebugStringOf(r.m))
	r.o.Println(`type "help" for commands`)

	for {
		input, err := line.Prompt("jzmut> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}

			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		if done := r.dispatch(input); done {
			return nil
		}
	}
}

// dispatch runs one REPL command. It returns true when the session ends.
func (r *repl) dispatch(input string) bool {
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "exit", "quit", "q":
		return true

	case "help":
		r.o.Println(replHelp)

	case "init":
		r.value = r.m.Init(r.prng)
		r.hasValue = true
		r.printValue()

	case "mutate":
		r.mutate(rest)

	case "read":
		r.read(rest)

	case "write":
		if !r.requireValue() {
			break
		}

		out := mutation.NewWriter(nil)
		r.m.Write(r.value, out)
		r.o.Println(hex.EncodeToString(out.Bytes()))

	case "detach":
		if !r.requireValue() {
			break
		}

		r.value = r.m.Detach(r.value)
		r.printValue()

	case "debug":
		r.o.Println(mutation.DebugStringOf(r.m))

	case "seed":
		n, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			r.o.Errorln("seed: expected a number:", rest)

			break
		}

		r.prng = mutation.NewPseudoRandom(n)
		r.o.Println("reseeded")

	default:
		r.o.Errorln("unknown command:", cmd, `(try "help")`)
	}

	return false
}

func (r *repl) mutate(arg string) {
	if !r.requireValue() {
		return
	}

	n := 1

	if arg != "" {
		parsed, err := strconv.Atoi(arg)
		if err != nil || parsed < 1 {
			r.o.Errorln("mutate: expected a positive count:", arg)

			return
		}

		n = parsed
	}

	for range n {
		r.value = r.m.Mutate(r.value, r.prng)
	}

	r.printValue()
}

func (r *repl) read(arg string) {
	data, err := hex.DecodeString(strings.TrimPrefix(arg, "0x"))
	if err != nil {
		r.o.Errorln("read: invalid hex:", arg)

		return
	}

	r.value = r.m.Read(mutation.NewReader(data))
	r.hasValue = true
	r.printValue()
}

func (r *repl) requireValue() bool {
	if !r.hasValue {
		r.o.Errorln(`no current value (use "init" or "read")`)

		return false
	}

	return true
}

func (r *repl) printValue() {
	r.o.Println(formatValue(r.value))
}
