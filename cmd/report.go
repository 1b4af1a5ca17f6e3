package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrisdamba/wooinsights/internal/cloudwriter"
	"github.com/chrisdamba/wooinsights/internal/daterange"
	"github.com/chrisdamba/wooinsights/internal/output"
	"github.com/chrisdamba/wooinsights/internal/service"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

// reportFlags are shared by every analysis command.
type reportFlags struct {
	rangeToken string
	start      string
	end        string
	format     string
	output     string
}

func (f *reportFlags) register(cmd *cobra.Command, defaultRange daterange.Token) {
	cmd.Flags().StringVar(&f.rangeToken, "range", string(defaultRange), fmt.Sprintf("date range token %v, or custom", daterange.Tokens()))
	cmd.Flags().StringVar(&f.start, "start", "", "custom range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "custom range end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.format, "format", "json", "report format: json, csv or parquet")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "report destination: a path, s3://bucket/key, or - for stdout")
}

func (f *reportFlags) rangeRequest(loc *time.Location) (service.RangeRequest, error) {
	// unknown tokens go through as-is; the resolver falls back and warns
	token, _ := daterange.ParseToken(f.rangeToken)
	req := service.RangeRequest{Token: token}
	var err error
	if f.start != "" {
		if req.Start, err = time.ParseInLocation(dateLayout, f.start, loc); err != nil {
			return req, fmt.Errorf("invalid --start: %w", err)
		}
	}
	if f.end != "" {
		if req.End, err = time.ParseInLocation(dateLayout, f.end, loc); err != nil {
			return req, fmt.Errorf("invalid --end: %w", err)
		}
	}
	if f.start != "" || f.end != "" {
		req.Token = daterange.Custom
	}
	return req, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func (a *app) export(ctx context.Context, report output.Report, f *reportFlags) error {
	format, err := output.ParseFormat(f.format)
	if err != nil {
		return err
	}
	var cloud cloudwriter.CloudWriterFactory
	if cloudwriter.IsS3URI(f.output) {
		factory, err := cloudwriter.NewS3WriterFactory(ctx, a.cfg.S3Region)
		if err != nil {
			return err
		}
		cloud = factory
	}
	return output.NewExporter(os.Stdout, cloud, a.logger).Export(report, format, f.output)
}
