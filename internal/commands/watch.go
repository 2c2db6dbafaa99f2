package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/projsys/internal/app"
	"github.com/dshills/projsys/internal/capability"
	"github.com/dshills/projsys/internal/config"
	"github.com/dshills/projsys/internal/dimension"
)

func watchCmd(e *env) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the property snapshot and report dimension changes",
		Long: `Opens the project, then watches its evaluated-property snapshot. Each time the
snapshot changes the dimensions are re-read and every added or removed value
is printed. Runs until interrupted.

Examples:
  projsys watch -p src/App/App.csproj
  projsys watch -p src/App/App.csproj --debounce 500ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := e.openOptions(capability.CSharp, capability.Managed)
			if err != nil {
				return err
			}
			opts.OnReload = func(events []dimension.ChangeEvent, err error) {
				if err != nil {
					fmt.Fprintf(e.err, "reload failed: %v\n", err)
					return
				}
				for _, evt := range events {
					fmt.Fprintln(e.out, formatChange(evt))
				}
			}
			mutate := func(cfg *config.Config) {
				cfg.Watch.Enabled = true
				if cmd.Flags().Changed("debounce") {
					cfg.Watch.Debounce = config.Duration(debounce)
				}
			}
			return e.withProject(cmd.Context(), opts, mutate, func(p *app.Project) error {
				fmt.Fprintf(e.out, "watching %s\n", p.SnapshotPath())
				<-cmd.Context().Done()
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 0, "coalesce snapshot writes within this window")
	return cmd
}

// formatChange renders an event as "+Configuration Staging" or
// "-Configuration Release".
func formatChange(evt dimension.ChangeEvent) string {
	switch evt.Kind {
	case dimension.ChangeAdd:
		return fmt.Sprintf("+%s %s", evt.DimensionName, evt.NewValue)
	case dimension.ChangeDelete:
		return fmt.Sprintf("-%s %s", evt.DimensionName, evt.OldValue)
	case dimension.ChangeRename:
		return fmt.Sprintf("~%s %s -> %s", evt.DimensionName, evt.OldValue, evt.NewValue)
	default:
		return fmt.Sprintf("=%s %s", evt.DimensionName, evt.NewValue)
	}
}
