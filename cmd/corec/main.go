package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/corec-lang/corec/internal/config"
	"github.com/corec-lang/corec/internal/diagnostics"
	"github.com/corec-lang/corec/internal/itype"
	"github.com/corec-lang/corec/internal/mir"
	"github.com/corec-lang/corec/pkg/corec"
	"github.com/mattn/go-isatty"
)

var (
	printMir = flag.Bool("mir", false, "print the generated MIR as YAML")
	startID  = flag.Uint64("start-id", 0, "first id for the existential generator")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: corec [-mir] [-start-id N] <file>")
		os.Exit(2)
	}

	src, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	config.StartExistentialID = *startID
	if err := run(string(src)); err != nil {
		printDiagnostic(err)
		os.Exit(1)
	}
}

func run(src string) error {
	astRoot, err := corec.Parse(src)
	if err != nil {
		return err
	}
	hirRoot, err := corec.LowerHir(astRoot)
	if err != nil {
		return err
	}
	res, err := corec.Synth(config.StartExistentialID, hirRoot)
	if err != nil {
		return err
	}
	fmt.Println(renderTop(res.TopType, res.Effects))

	m, err := corec.GenMir(res.Typed(hirRoot))
	if err != nil {
		return err
	}
	if *printMir {
		out, err := mir.Dump(m)
		if err != nil {
			return err
		}
		fmt.Print(out)
	}
	return nil
}

func renderTop(ty itype.IType, eff itype.IEffectExpr) string {
	if items := itype.EffectsOf(eff); len(items) > 0 {
		return itype.MakeEffectful(ty, eff).String()
	}
	return ty.String()
}

// printDiagnostic writes one error with its source position, colorized
// when stderr is a terminal.
func printDiagnostic(err error) {
	red, reset := "", ""
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		red, reset = "\x1b[31m", "\x1b[0m"
	}
	if d, ok := err.(diagnostics.Error); ok {
		span := d.Meta().Span
		fmt.Fprintf(os.Stderr, "%serror[%s]%s %d:%d: %v\n",
			red, d.Code(), reset, span.Start.Line, span.Start.Column, d)
		return
	}
	fmt.Fprintf(os.Stderr, "%serror%s %v\n", red, reset, err)
}
