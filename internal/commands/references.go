package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/projsys/internal/app"
	"github.com/dshills/projsys/internal/capability"
)

func referencesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "references",
		Short: "Sync the framework runtime references of a Visual Basic project",
		Long: `Reads the framework path override of the project and adds the runtime
assemblies found there to the project's language service context, then prints
the references that were added. Projects without an override get none.

Examples:
  projsys references -p src/Lib/Lib.vbproj`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := e.openOptions(capability.VisualBasic, capability.Managed)
			if err != nil {
				return err
			}
			return e.withProject(cmd.Context(), opts, nil, func(p *app.Project) error {
				if p.RuntimeReferences() == nil {
					return fmt.Errorf("runtime references apply to %s projects only", capability.VisualBasic)
				}
				if err := p.WaitReferences(); err != nil {
					return err
				}
				refs := p.Workspace().Context().References()
				if len(refs) == 0 {
					fmt.Fprintln(e.out, "no runtime references")
					return nil
				}
				for _, r := range refs {
					fmt.Fprintf(e.out, "%s\t%s\n", r.Kind, r.Path)
				}
				return nil
			})
		},
	}
}
