package cmd

import (
	"testing"
	"time"

	"github.com/chrisdamba/wooinsights/internal/daterange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeRequestFromToken(t *testing.T) {
	f := reportFlags{rangeToken: " Last7Days"}

	req, err := f.rangeRequest(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, daterange.Last7Days, req.Token)
	assert.True(t, req.Start.IsZero())
}

func TestRangeRequestExplicitDatesMeanCustom(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	f := reportFlags{rangeToken: "last5days", start: "2024-02-01", end: "2024-02-29"}

	req, err := f.rangeRequest(loc)
	require.NoError(t, err)
	assert.Equal(t, daterange.Custom, req.Token)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, loc), req.Start)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, loc), req.End)
}

func TestRangeRequestRejectsBadDates(t *testing.T) {
	_, err := (&reportFlags{start: "01/02/2024"}).rangeRequest(time.UTC)
	assert.ErrorContains(t, err, "--start")

	_, err = (&reportFlags{end: "2024-13-01"}).rangeRequest(time.UTC)
	assert.ErrorContains(t, err, "--end")
}

func TestCommandsAreRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["dashboard"])
	assert.True(t, names["rfm"])

	for _, flag := range []string{"range", "start", "end", "format", "output"} {
		assert.NotNil(t, dashboardCmd.Flags().Lookup(flag), flag)
		assert.NotNil(t, rfmCmd.Flags().Lookup(flag), flag)
	}
	assert.Equal(t, "last3months", rfmCmd.Flags().Lookup("range").DefValue)
	assert.Equal(t, "last5days", dashboardCmd.Flags().Lookup("range").DefValue)
}
