package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/projsys/internal/app"
	"github.com/dshills/projsys/internal/build"
	"github.com/dshills/projsys/internal/capability"
)

func buildLogCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "build-log [events.jsonl]",
		Short: "Replay design-time build events into the error list",
		Long: `Reads build events as JSON lines, from the file argument or standard input,
feeds them to the project's design-time build logger and prints the resulting
error list. A build-started event clears earlier entries.

Each line is an object such as:
  {"kind":"error","code":"CS0103","message":"The name 'x' does not exist","file":"Program.cs","line":12,"column":5}

Examples:
  projsys build-log -p src/App/App.csproj build.jsonl
  cat build.jsonl | projsys build-log -p src/App/App.csproj`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			events, err := build.ReadEvents(in)
			if err != nil {
				return err
			}

			opts, err := e.openOptions(capability.CSharp, capability.Managed)
			if err != nil {
				return err
			}
			return e.withProject(cmd.Context(), opts, nil, func(p *app.Project) error {
				lp := p.BuildLoggers()
				if lp == nil {
					return fmt.Errorf("design-time build logging applies to %s projects only", capability.CSharpOrVisualBasic)
				}
				loggers, err := lp.GetLoggers(cmd.Context(), []string{"Compile"}, nil)
				if err != nil {
					return err
				}

				var src build.Source
				for _, l := range loggers {
					if err := l.Initialize(&src); err != nil {
						return err
					}
				}
				for _, evt := range events {
					src.Raise(evt)
				}
				for _, l := range loggers {
					l.Shutdown()
				}

				a := p.App()
				return printEntries(e.out, a.ErrorList().Manager(a.Config().Build.TableID).Entries())
			})
		},
	}
}

func printEntries(w io.Writer, entries []*build.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no errors or warnings")
		return err
	}
	for _, entry := range entries {
		if _, err := fmt.Fprintln(w, entry); err != nil {
			return err
		}
	}
	return nil
}
