// Package replshell implements an interactive read/expand inspection loop
// for HQL (spec §5 "Dev tooling surface"). It exposes the Reader and
// Expander directly so a user can see the S-expression a line reads to and
// the form it expands to, before any (out-of-scope) code generation would
// run. Grounded on the teacher's internal/repl.REPL: liner for history/
// multiline input, fatih/color for prompt and result coloring.
package replshell

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"hql/internal/expander"
	"hql/internal/henv"
	"hql/internal/herrors"
	"hql/internal/loader"
	"hql/internal/reader"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Shell is the interactive read/expand/graph inspection REPL.
type Shell struct {
	Env *henv.Env
	Exp *expander.Expander
	Ld  *loader.Loader

	file    string
	history []string
}

// New constructs a Shell with a fresh Environment and Expander (spec §4.2
// "independent compilations must use disjoint environments").
func New() *Shell {
	env := henv.New()
	exp := expander.New(env)
	return &Shell{
		Env:  env,
		Exp:  exp,
		Ld:   loader.New(env, exp, "."),
		file: "<repl>",
	}
}

// Start runs the loop until EOF or :quit.
func (s *Shell) Start(out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(true)

	historyFile := filepath.Join(os.TempDir(), ".hql_repl_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	fmt.Fprintf(out, "%s\n", bold("hql repl"))
	fmt.Fprintln(out, dim("Type :help for commands, :quit to exit"))

	line.SetCompleter(func(input string) (c []string) {
		if strings.HasPrefix(input, ":") {
			for _, cmd := range []string{":help", ":quit", ":read", ":expand", ":graph", ":macros"} {
				if strings.HasPrefix(cmd, input) {
					c = append(c, cmd)
				}
			}
		}
		return
	})

	for {
		input, err := line.Prompt("hql> ")
		if err == io.EOF {
			fmt.Fprintln(out, green("\nbye"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("error"), err)
			continue
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)
		s.history = append(s.history, input)
		s.handle(input, out)
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

func (s *Shell) handle(input string, out io.Writer) {
	trimmed := strings.TrimSpace(input)
	switch {
	case trimmed == ":help":
		fmt.Fprintln(out, dim(":read <expr>   show the reader's S-expression"))
		fmt.Fprintln(out, dim(":expand <expr> show the expander's fixed-point result"))
		fmt.Fprintln(out, dim(":graph         show the loaded module dependency graph"))
		fmt.Fprintln(out, dim(":macros        list globally defined macro names"))
		return
	case trimmed == ":quit":
		os.Exit(0)
	case trimmed == ":graph":
		s.printGraph(out)
		return
	case trimmed == ":macros":
		s.printMacros(out)
		return
	case strings.HasPrefix(trimmed, ":read "):
		s.printRead(strings.TrimPrefix(trimmed, ":read "), out)
		return
	case strings.HasPrefix(trimmed, ":expand "):
		s.printExpand(strings.TrimPrefix(trimmed, ":expand "), out)
		return
	}
	s.printExpand(input, out)
}

func (s *Shell) printRead(src string, out io.Writer) {
	forms, err := reader.ReadAll(src, s.file)
	if err != nil {
		s.printErr(err, out)
		return
	}
	for _, f := range forms {
		fmt.Fprintln(out, f.String())
	}
}

func (s *Shell) printExpand(src string, out io.Writer) {
	forms, err := reader.ReadAll(src, s.file)
	if err != nil {
		s.printErr(err, out)
		return
	}
	expanded, err := s.Exp.Expand(forms, s.file)
	if err != nil {
		s.printErr(err, out)
		return
	}
	for _, f := range expanded {
		fmt.Fprintln(out, yellow(f.String()))
	}
}

func (s *Shell) printGraph(out io.Writer) {
	graph := s.Ld.DependencyGraph()
	if len(graph) == 0 {
		fmt.Fprintln(out, dim("(no modules loaded)"))
		return
	}
	for path, deps := range graph {
		fmt.Fprintf(out, "%s\n", path)
		for _, d := range deps {
			fmt.Fprintf(out, "  -> %s\n", d)
		}
	}
}

func (s *Shell) printMacros(out io.Writer) {
	names := s.Env.GlobalMacroNames()
	if len(names) == 0 {
		fmt.Fprintln(out, dim("(no global macros defined)"))
		return
	}
	for _, n := range names {
		fmt.Fprintln(out, n)
	}
}

func (s *Shell) printErr(err error, out io.Writer) {
	if rep, ok := herrors.AsReport(err); ok {
		fmt.Fprintf(out, "%s %s: %s\n", red(rep.Code), red(rep.Kind), rep.Message)
		return
	}
	fmt.Fprintf(out, "%s: %v\n", red("error"), err)
}
