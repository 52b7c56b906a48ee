// Command hql is the front-end compiler CLI: read, expand, inspect the
// module graph, or drop into the interactive repl. Code generation and
// bundling are out of scope (spec Non-goals) so there is no "run" or
// "build" subcommand here. Grounded on cmd/ailang/main.go's stdlib-flag
// subcommand dispatch and fatih/color output styling.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"hql/internal/expander"
	"hql/internal/henv"
	"hql/internal/herrors"
	"hql/internal/hqlconfig"
	"hql/internal/loader"
	"hql/internal/reader"
	"hql/internal/replshell"
)

var (
	Version = "dev"

	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "print version information")
		jsonFlag    = flag.Bool("json", false, "emit diagnostics as JSON")
		configFlag  = flag.String("config", "hql.yaml", "path to the project config file")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("hql %s\n", bold(Version))
		return
	}

	if flag.NArg() == 0 {
		printHelp()
		return
	}

	cfg, err := hqlconfig.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: reading %s: %v\n", yellow("warning"), *configFlag, err)
		cfg = hqlconfig.Default()
	}

	command := flag.Arg(0)
	switch command {
	case "read":
		requireFileArg(command)
		cmdRead(flag.Arg(1), *jsonFlag)
	case "expand":
		requireFileArg(command)
		cmdExpand(flag.Arg(1), *jsonFlag, cfg)
	case "graph":
		requireFileArg(command)
		cmdGraph(flag.Arg(1), *jsonFlag, cfg)
	case "repl":
		replshell.New().Start(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command '%s'\n", red("error"), command)
		printHelp()
		os.Exit(1)
	}
}

func requireFileArg(command string) {
	if flag.NArg() < 2 {
		fmt.Fprintf(os.Stderr, "%s: %s requires a file argument\n", red("error"), command)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(bold("hql - the HQL front-end compiler"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  hql <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s <file>    print the file's S-expressions\n", cyan("read"))
	fmt.Printf("  %s <file>  print the file's fully macro-expanded forms\n", cyan("expand"))
	fmt.Printf("  %s <file>   print the module dependency graph\n", cyan("graph"))
	fmt.Printf("  %s             start the interactive repl\n", cyan("repl"))
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --json      emit diagnostics as JSON (hql.error/v1)")
	fmt.Println("  --version   print version information")
}

func cmdRead(path string, asJSON bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		reportAndExit(err, asJSON)
	}
	forms, err := reader.ReadAllBytes(content, path)
	if err != nil {
		reportAndExit(err, asJSON)
	}
	for _, f := range forms {
		fmt.Println(f.String())
	}
}

func cmdExpand(path string, asJSON bool, cfg *hqlconfig.Config) {
	content, err := os.ReadFile(path)
	if err != nil {
		reportAndExit(err, asJSON)
	}
	forms, err := reader.ReadAllBytes(content, path)
	if err != nil {
		reportAndExit(err, asJSON)
	}
	env := henv.New()
	exp := newExpander(env, cfg)
	expanded, err := exp.Expand(forms, path)
	if err != nil {
		reportAndExit(err, asJSON)
	}
	for _, f := range expanded {
		fmt.Println(f.String())
	}
}

func cmdGraph(path string, asJSON bool, cfg *hqlconfig.Config) {
	env := henv.New()
	exp := newExpander(env, cfg)
	ld := loader.New(env, exp, ".")
	ld.StdlibPaths = cfg.StdlibPaths
	if _, err := ld.Load(path); err != nil {
		reportAndExit(err, asJSON)
	}
	for file, deps := range ld.DependencyGraph() {
		fmt.Println(file)
		for _, d := range deps {
			fmt.Printf("  -> %s\n", d)
		}
	}
}

// newExpander builds an Expander with hql.yaml's MAX_ITERATIONS/
// MAX_EXPAND_DEPTH overrides applied, if set (spec §4.4).
func newExpander(env *henv.Env, cfg *hqlconfig.Config) *expander.Expander {
	exp := expander.New(env)
	if cfg.MaxIterations > 0 {
		exp.Options.MaxIterations = cfg.MaxIterations
	}
	if cfg.MaxExpandDepth > 0 {
		exp.Options.MaxExpandDepth = cfg.MaxExpandDepth
	}
	return exp
}

func reportAndExit(err error, asJSON bool) {
	if asJSON {
		if rep, ok := herrors.AsReport(err); ok {
			if js, jerr := rep.ToJSON(); jerr == nil {
				fmt.Println(js)
				os.Exit(1)
			}
		}
	}
	if rep, ok := herrors.AsReport(err); ok {
		fmt.Fprintf(os.Stderr, "%s %s: %s\n", red(rep.Code), yellow(rep.Kind), rep.Message)
	} else {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
	}
	os.Exit(1)
}
