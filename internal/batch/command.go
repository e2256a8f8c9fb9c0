package batch

import (
	"fmt"
	"strings"

	"github.com/DesignBuilderSoftware/db-batch/internal/models"
)

// DayMonth is a day-of-month / month pair for forcing simulation dates.
type DayMonth struct {
	Day   int
	Month int
}

// Attribute is a model attribute override applied before the run.
type Attribute struct {
	Name  string
	Value string
}

// CommandOptions describe the automation command passed to
// DesignBuilder alongside the model file.
type CommandOptions struct {
	Analysis         models.Analysis
	UseSimManager    bool
	SimStartDate     *DayMonth
	SimEndDate       *DayMonth
	ChangeAttributes []Attribute
	NoClose          bool
}

// Automation verbs understood by DesignBuilder, keyed by analysis.
var analysisVerbs = map[models.Analysis]string{
	models.AnalysisEplus: "miGSS",
	models.AnalysisSbem:  "miGCalculate",
}

// BuildCommand composes the /process= automation command string.
// Argument order matters to DesignBuilder: manager selection, forced
// dates and attribute overrides precede the analysis verb, and the
// model update verb always comes last.
func BuildCommand(opts CommandOptions) (string, error) {
	verb, ok := analysisVerbs[opts.Analysis]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAnalysis, opts.Analysis)
	}

	var args []string

	if opts.UseSimManager {
		args = append(args, "UseSimManager")
	}
	if opts.SimStartDate != nil {
		args = append(args, fmt.Sprintf("SimStartDate %d %d", opts.SimStartDate.Day, opts.SimStartDate.Month))
	}
	if opts.SimEndDate != nil {
		args = append(args, fmt.Sprintf("SimEndDate %d %d", opts.SimEndDate.Day, opts.SimEndDate.Month))
	}
	for _, attr := range opts.ChangeAttributes {
		args = append(args, fmt.Sprintf("ChangeAttributeValue %s %s", attr.Name, attr.Value))
	}
	if opts.NoClose {
		args = append(args, "NoClose")
	}

	args = append(args, verb, "miTUpdate")

	return "/process=" + strings.Join(args, ", "), nil
}
