package cmd

import (
	"time"

	"github.com/chrisdamba/wooinsights/internal/daterange"
	"github.com/chrisdamba/wooinsights/internal/output"
	"github.com/spf13/cobra"
)

var dashboardFlags reportFlags

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Revenue, top products, categories and customer figures for a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.cleanup()

		loc, _ := a.cfg.Location()
		req, err := dashboardFlags.rangeRequest(loc)
		if err != nil {
			return err
		}
		rng, err := a.service.DashboardWindow(req)
		if err != nil {
			return err
		}

		stop := a.watchProgress()
		res, err := a.service.Dashboard(ctx, req)
		stop()
		if err != nil {
			return err
		}

		report := output.NewDashboardReport(a.cfg.AppTitle, rng, res, time.Now())
		return a.export(ctx, report, &dashboardFlags)
	},
}

func init() {
	dashboardFlags.register(dashboardCmd, daterange.Default)
}
