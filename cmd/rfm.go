package cmd

import (
	"fmt"
	"time"

	"github.com/chrisdamba/wooinsights/internal/daterange"
	"github.com/chrisdamba/wooinsights/internal/output"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	rfmFlags      reportFlags
	referenceDate string
	withCustomers bool
)

var rfmCmd = &cobra.Command{
	Use:   "rfm",
	Short: "Score customers on recency, frequency and monetary value and segment them",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.cleanup()

		loc, _ := a.cfg.Location()
		req, err := rfmFlags.rangeRequest(loc)
		if err != nil {
			return err
		}
		rng, err := a.service.RFMWindow(req)
		if err != nil {
			return err
		}
		var ref time.Time
		if referenceDate != "" {
			if ref, err = time.ParseInLocation(dateLayout, referenceDate, loc); err != nil {
				return fmt.Errorf("invalid --reference-date: %w", err)
			}
		}

		stop := a.watchProgress()
		res, err := a.service.RFM(ctx, req, ref)
		stop()
		if err != nil {
			return err
		}

		for _, share := range output.SegmentSummary(res) {
			a.logger.WithFields(logrus.Fields{
				"segment":   share.Segment,
				"customers": share.Customers,
				"percent":   share.Percent.String(),
			}).Info("segment")
		}

		// the CSV and parquet renderings are the customer rows themselves
		if format, _ := output.ParseFormat(rfmFlags.format); format == output.FormatJSON && !withCustomers {
			res.Customers = nil
		}
		report := output.NewRFMReport(a.cfg.AppTitle, rng, res, time.Now())
		return a.export(ctx, report, &rfmFlags)
	},
}

func init() {
	rfmFlags.register(rfmCmd, daterange.Last3Month)
	rfmCmd.Flags().StringVar(&referenceDate, "reference-date", "", "measure recency from this date (YYYY-MM-DD) instead of the range end")
	rfmCmd.Flags().BoolVar(&withCustomers, "customers", false, "include per-customer scores in JSON output")
}
