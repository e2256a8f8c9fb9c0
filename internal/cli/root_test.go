package cli

import (
	"testing"

	"github.com/DesignBuilderSoftware/db-batch/internal/batch"
	"github.com/DesignBuilderSoftware/db-batch/internal/models"
)

func TestParseDayMonth(t *testing.T) {
	t.Run("unset", func(t *testing.T) {
		got, err := parseDayMonth("sim-start-date", nil)
		if err != nil || got != nil {
			t.Errorf("Expected nil date, got %v (%v)", got, err)
		}
	})

	t.Run("valid", func(t *testing.T) {
		got, err := parseDayMonth("sim-start-date", []int{15, 6})
		if err != nil {
			t.Fatalf("parseDayMonth() error: %v", err)
		}
		if got == nil || got.Day != 15 || got.Month != 6 {
			t.Errorf("Expected day 15 month 6, got %+v", got)
		}
	})

	t.Run("wrong arity", func(t *testing.T) {
		if _, err := parseDayMonth("sim-end-date", []int{15}); err == nil {
			t.Error("Expected error for single value")
		}
		if _, err := parseDayMonth("sim-end-date", []int{15, 6, 2024}); err == nil {
			t.Error("Expected error for three values")
		}
	})
}

func TestBuildCommandOptions(t *testing.T) {
	reset := func() {
		useSimManager = false
		noClose = false
		simStartDate = nil
		simEndDate = nil
		changeAttrs = nil
	}

	t.Run("attributes parsed", func(t *testing.T) {
		reset()
		defer reset()
		changeAttrs = []string{"Site=London", "HVACTemplate=VAV with reheat"}

		opts, err := buildCommandOptions(models.AnalysisEplus)
		if err != nil {
			t.Fatalf("buildCommandOptions() error: %v", err)
		}
		want := []batch.Attribute{
			{Name: "Site", Value: "London"},
			{Name: "HVACTemplate", Value: "VAV with reheat"},
		}
		if len(opts.ChangeAttributes) != len(want) {
			t.Fatalf("Expected %d attributes, got %d", len(want), len(opts.ChangeAttributes))
		}
		for i, attr := range opts.ChangeAttributes {
			if attr != want[i] {
				t.Errorf("Attribute %d: expected %+v, got %+v", i, want[i], attr)
			}
		}
	})

	t.Run("value may contain equals sign", func(t *testing.T) {
		reset()
		defer reset()
		changeAttrs = []string{"Formula=a=b"}

		opts, err := buildCommandOptions(models.AnalysisEplus)
		if err != nil {
			t.Fatalf("buildCommandOptions() error: %v", err)
		}
		if opts.ChangeAttributes[0].Value != "a=b" {
			t.Errorf("Expected value %q, got %q", "a=b", opts.ChangeAttributes[0].Value)
		}
	})

	t.Run("malformed attribute", func(t *testing.T) {
		reset()
		defer reset()
		changeAttrs = []string{"NoEqualsSign"}

		if _, err := buildCommandOptions(models.AnalysisEplus); err == nil {
			t.Error("Expected error for attribute without value")
		}
	})

	t.Run("empty attribute name", func(t *testing.T) {
		reset()
		defer reset()
		changeAttrs = []string{"=value"}

		if _, err := buildCommandOptions(models.AnalysisEplus); err == nil {
			t.Error("Expected error for empty attribute name")
		}
	})

	t.Run("dates and switches carried through", func(t *testing.T) {
		reset()
		defer reset()
		useSimManager = true
		noClose = true
		simStartDate = []int{1, 1}
		simEndDate = []int{31, 12}

		opts, err := buildCommandOptions(models.AnalysisSbem)
		if err != nil {
			t.Fatalf("buildCommandOptions() error: %v", err)
		}
		if opts.Analysis != models.AnalysisSbem {
			t.Errorf("Expected sbem analysis, got %q", opts.Analysis)
		}
		if !opts.UseSimManager || !opts.NoClose {
			t.Error("Expected both switches set")
		}
		if opts.SimStartDate == nil || opts.SimStartDate.Day != 1 || opts.SimStartDate.Month != 1 {
			t.Errorf("Unexpected start date %+v", opts.SimStartDate)
		}
		if opts.SimEndDate == nil || opts.SimEndDate.Day != 31 || opts.SimEndDate.Month != 12 {
			t.Errorf("Unexpected end date %+v", opts.SimEndDate)
		}
	})
}

func TestRootCmdFlagDefaults(t *testing.T) {
	cmd := NewRootCmd()

	for flag, want := range map[string]string{
		"analysis":    "eplus",
		"start-index": "1",
		"depth":       "1",
	} {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			t.Errorf("Flag --%s not registered", flag)
			continue
		}
		if f.DefValue != want {
			t.Errorf("Flag --%s default = %q, want %q", flag, f.DefValue, want)
		}
	}
}
