package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/corekernel/internal/cli/output"
	"github.com/marmos91/corekernel/pkg/config"
	"github.com/marmos91/corekernel/pkg/features/logging"
	"github.com/marmos91/corekernel/pkg/features/logview"
	"github.com/marmos91/corekernel/pkg/features/metrics"
	"github.com/marmos91/corekernel/pkg/features/store"
	"github.com/marmos91/corekernel/pkg/kernel"
	"github.com/marmos91/corekernel/pkg/options"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List registered features and their resolved startup order",
	Long: `List every feature the host registers, its enablement and privilege
requirements, and its declared dependencies. The ORDER column shows the
position in the resolved startup order; disabled features have none.`,
	RunE: runFeatures,
}

func runFeatures(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	srv := kernel.New(options.New())
	defer srv.Close()

	srv.AddFeature(logging.New(cfg.Logging))
	srv.AddFeature(metrics.New(cfg.Metrics, Version))
	srv.AddFeature(store.New(cfg.Store))
	srv.AddFeature(logview.New())

	// Features that the configuration switches off disable themselves in
	// LoadOptions; run it so the listed enablement matches a start.
	for _, name := range srv.Names() {
		if f, ok := srv.TryFeature(name); ok {
			f.LoadOptions(srv.Options())
		}
	}

	ordered, err := srv.ResolveOrder()
	if err != nil {
		return err
	}
	position := make(map[string]int, len(ordered))
	for i, name := range ordered {
		position[name] = i + 1
	}

	table := output.NewTableData("NAME", "ENABLED", "ORDER", "OPTIONAL", "ELEVATED", "STARTS AFTER", "REQUIRES")
	for _, name := range srv.Names() {
		f, err := srv.Feature(name)
		if err != nil {
			return err
		}

		order := "-"
		if pos, ok := position[name]; ok {
			order = strconv.Itoa(pos)
		}

		table.AddRow(
			f.Name(),
			strconv.FormatBool(f.IsEnabled()),
			order,
			strconv.FormatBool(f.IsOptional()),
			strconv.FormatBool(f.RequiresElevatedPrivileges()),
			strings.Join(f.StartsAfter(), ", "),
			strings.Join(f.Requires(), ", "),
		)
	}

	return output.PrintTable(cmd.OutOrStdout(), table)
}
