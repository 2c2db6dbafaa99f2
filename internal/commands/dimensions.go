package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/dshills/projsys/internal/app"
	"github.com/dshills/projsys/internal/capability"
	"github.com/dshills/projsys/internal/dimension"
)

func dimensionsCmd(e *env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dimensions",
		Short: "List configuration dimensions and configurations",
		Long: `Reads the project's evaluated-property snapshot and prints each configuration
dimension with its values, the default configuration and every configuration
in the cross product.

Examples:
  projsys dimensions -p src/App/App.csproj
  projsys dimensions -p src/App/App.csproj --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := e.openOptions(capability.CSharp, capability.Managed)
			if err != nil {
				return err
			}
			return e.withProject(cmd.Context(), opts, nil, func(p *app.Project) error {
				ctx := cmd.Context()
				def, err := p.Resolver().DefaultConfiguration(ctx, p.Project())
				if err != nil {
					return err
				}
				configs, err := p.Resolver().Configurations(ctx, p.Project())
				if err != nil {
					return err
				}
				if asJSON {
					return writeDimensionsJSON(e.out, p.Dimensions(), def, configs)
				}
				writeDimensions(e.out, p.Dimensions(), def, configs)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeDimensions(w io.Writer, dims []dimension.Dimension, def dimension.Configuration, configs []dimension.Configuration) {
	if len(dims) == 0 {
		fmt.Fprintln(w, "no dimensions")
		return
	}
	for _, d := range dims {
		fmt.Fprintf(w, "%s: %s\n", d.Name, strings.Join(d.Values, ", "))
	}
	fmt.Fprintf(w, "default: %s\n", def)
	fmt.Fprintf(w, "configurations (%d):\n", len(configs))
	for _, c := range configs {
		fmt.Fprintf(w, "  %s\n", c)
	}
}

func writeDimensionsJSON(w io.Writer, dims []dimension.Dimension, def dimension.Configuration, configs []dimension.Configuration) error {
	doc := `{"dimensions":[],"default":{},"configurations":[]}`
	var err error
	for i, d := range dims {
		doc, err = sjson.Set(doc, fmt.Sprintf("dimensions.%d", i), map[string]any{
			"name":   d.Name,
			"values": d.Values,
		})
		if err != nil {
			return err
		}
	}
	for _, v := range def.Values() {
		if doc, err = sjson.Set(doc, "default."+escapeKey(v.Name), v.Value); err != nil {
			return err
		}
	}
	for _, c := range configs {
		if doc, err = sjson.Set(doc, "configurations.-1", c.Name()); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w, doc)
	return err
}

// escapeKey escapes sjson path syntax in a dimension name.
func escapeKey(name string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)
	return r.Replace(name)
}
