// Command antec is the driver CLI for the semantic middle-end: inference,
// monomorphisation and the refinement/SMT bridge (spec.md §1 Overview).
// It has no parser of its own (parsing is outside the middle-end's scope);
// its subcommands run the pipeline against the built-in sample program in
// internal/sample until a real front end is wired in ahead of it.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/locriacyber/ante/internal/cache"
	"github.com/locriacyber/ante/internal/config"
	"github.com/locriacyber/ante/internal/diag"
	"github.com/locriacyber/ante/internal/infer"
	"github.com/locriacyber/ante/internal/ir"
	"github.com/locriacyber/ante/internal/mono"
	"github.com/locriacyber/ante/internal/refine"
	"github.com/locriacyber/ante/internal/sample"
	"github.com/locriacyber/ante/internal/surfacir"
)

// Version info, set by ldflags during build.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	red  = color.New(color.FgRed).SprintFunc()
	cyan = color.New(color.FgCyan).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
	dim  = color.New(color.Faint).SprintFunc()
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "antec",
		Short: "antec drives the ante semantic middle-end (infer, mono, smt)",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML driver config (defaults applied otherwise)")

	root.AddCommand(versionCmd(), inferCmd(), monoCmd(), smtCmd(), replCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Defaults(), nil
	}
	return config.Load(configPath)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("antec %s\n", bold(Version))
			if Commit != "unknown" {
				fmt.Printf("commit: %s\n", Commit)
			}
			if BuildTime != "unknown" {
				fmt.Printf("built:  %s\n", BuildTime)
			}
			return nil
		},
	}
}

// defName returns d's bound name, or "" if its pattern isn't a bare
// variable (the sample program only ever binds bare variables).
func defName(d *surfacir.Definition) string {
	if v, ok := d.Pattern.(*surfacir.VarPattern); ok {
		return v.Name
	}
	return ""
}

// checked bundles the state shared by infer/mono/smt: the cache and
// scheme table inference populated, plus the sample module itself.
type checked struct {
	cache   *cache.Cache
	checker *infer.Checker
	module  *surfacir.Module
}

// runInfer runs inference over the sample program once; infer/mono/smt
// all start from here rather than re-running it independently.
func runInfer() (*checked, error) {
	c := cache.New()
	ch := infer.New(c)
	m := sample.Program()
	ch.InferModule(m)
	if len(ch.Diags) > 0 {
		var b strings.Builder
		for _, d := range ch.Diags {
			fmt.Fprintf(&b, "%s: %s\n", d.Kind, d.Msg)
		}
		return nil, fmt.Errorf("inference failed:\n%s", b.String())
	}
	return &checked{cache: c, checker: ch, module: m}, nil
}

func (ck *checked) printSchemes(w *strings.Builder) {
	for _, d := range ck.module.Defs {
		name := defName(d)
		id, ok := ck.cache.LookupDefByName(name)
		if !ok {
			continue
		}
		scheme, ok := ck.checker.Schemes.Get(id)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s : %s\n", cyan(name), scheme.Body)
	}
}

func runMono(ck *checked) (*mono.Monomorphizer, *ir.Program, error) {
	mz := mono.New(ck.cache, ck.checker.Schemes)
	prog, err := mz.Run(ck.module, sample.EntryPoint)
	if err != nil {
		return nil, nil, fmt.Errorf("mono: %w", err)
	}
	return mz, prog, nil
}

func inferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "infer",
		Short: "run inference over the sample program and print each definition's scheme",
		RunE: func(cmd *cobra.Command, args []string) error {
			ck, err := runInfer()
			if err != nil {
				return err
			}
			var b strings.Builder
			ck.printSchemes(&b)
			fmt.Print(b.String())
			return nil
		},
	}
}

func monoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mono",
		Short: "monomorphise the sample program from its entry point and print the IR",
		RunE: func(cmd *cobra.Command, args []string) error {
			ck, err := runInfer()
			if err != nil {
				return err
			}
			_, prog, err := runMono(ck)
			if err != nil {
				return err
			}
			fmt.Print(prog.Pretty())
			return nil
		},
	}
}

func smtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "smt",
		Short: "lower the monomorphised sample program to an SMT-LIB2 script",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ck, err := runInfer()
			if err != nil {
				return err
			}
			mz, prog, err := runMono(ck)
			if err != nil {
				return err
			}
			if cfg.SMT != config.BackendNone {
				fmt.Fprintf(os.Stderr, "%s backend %q selected; emitting SMT-LIB2 text only (no solver is invoked)\n", dim("note:"), cfg.SMT)
			}
			out, err := refine.EncodeProgram(ck.cache, ck.checker.Schemes, mz.DefTypes(), prog)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "interactively inspect the sample program's infer/mono/smt output",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL()
		},
	}
}

// runREPL is a liner-driven loop over the same three views the infer/
// mono/smt subcommands print once: :infer, :mono, :smt, :quit. It mirrors
// the teacher's internal/repl.REPL.Start structure (liner + history file)
// but has no expression evaluator to drive, since there is no parser to
// read new definitions from.
func runREPL() error {
	ck, err := runInfer()
	if err != nil {
		return err
	}
	mz, prog, err := runMono(ck)
	if err != nil {
		return err
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(false)

	historyFile := filepath.Join(os.TempDir(), ".antec_history")
	if f, openErr := os.Open(historyFile); openErr == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, createErr := os.Create(historyFile); createErr == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Printf("%s %s\n", bold("antec"), bold(Version))
	fmt.Println(dim("Type :help for help, :quit to exit"))

	for {
		input, err := line.Prompt("antec> ")
		if err != nil {
			fmt.Println()
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch input {
		case ":help", ":h":
			fmt.Println("  :infer   print the sample program's inferred schemes")
			fmt.Println("  :mono    print the monomorphised IR")
			fmt.Println("  :smt     print the SMT-LIB2 encoding")
			fmt.Println("  :quit    exit")
		case ":quit", ":q":
			return nil
		case ":infer":
			var b strings.Builder
			ck.printSchemes(&b)
			fmt.Print(b.String())
		case ":mono":
			fmt.Print(prog.Pretty())
		case ":smt":
			out, err := refine.EncodeProgram(ck.cache, ck.checker.Schemes, mz.DefTypes(), prog)
			if err != nil {
				diag.RenderLine(os.Stderr, diag.NewGeneric("refine", err))
				continue
			}
			fmt.Print(out)
		default:
			fmt.Printf("%s unknown command %q (try :help)\n", red("error:"), input)
		}
	}
}
