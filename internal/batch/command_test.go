package batch

import (
	"errors"
	"testing"

	"github.com/DesignBuilderSoftware/db-batch/internal/models"
)

func TestBuildCommand(t *testing.T) {
	tests := []struct {
		name string
		opts CommandOptions
		want string
	}{
		{
			name: "eplus defaults",
			opts: CommandOptions{Analysis: models.AnalysisEplus},
			want: "/process=miGSS, miTUpdate",
		},
		{
			name: "sbem defaults",
			opts: CommandOptions{Analysis: models.AnalysisSbem},
			want: "/process=miGCalculate, miTUpdate",
		},
		{
			name: "simulation manager forced",
			opts: CommandOptions{Analysis: models.AnalysisEplus, UseSimManager: true},
			want: "/process=UseSimManager, miGSS, miTUpdate",
		},
		{
			name: "forced dates",
			opts: CommandOptions{
				Analysis:     models.AnalysisEplus,
				SimStartDate: &DayMonth{Day: 1, Month: 1},
				SimEndDate:   &DayMonth{Day: 1, Month: 12},
			},
			want: "/process=SimStartDate 1 1, SimEndDate 1 12, miGSS, miTUpdate",
		},
		{
			name: "attribute overrides in order",
			opts: CommandOptions{
				Analysis: models.AnalysisEplus,
				ChangeAttributes: []Attribute{
					{Name: "DailyOutput", Value: "0"},
					{Name: "MonthlyOutput", Value: "1"},
				},
			},
			want: "/process=ChangeAttributeValue DailyOutput 0, ChangeAttributeValue MonthlyOutput 1, miGSS, miTUpdate",
		},
		{
			name: "everything combined",
			opts: CommandOptions{
				Analysis:         models.AnalysisEplus,
				UseSimManager:    true,
				SimStartDate:     &DayMonth{Day: 1, Month: 1},
				SimEndDate:       &DayMonth{Day: 1, Month: 12},
				ChangeAttributes: []Attribute{{Name: "HourlyOutput", Value: "0"}},
				NoClose:          true,
			},
			want: "/process=UseSimManager, SimStartDate 1 1, SimEndDate 1 12, ChangeAttributeValue HourlyOutput 0, NoClose, miGSS, miTUpdate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildCommand(tt.opts)
			if err != nil {
				t.Fatalf("BuildCommand() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("BuildCommand()\n got %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestBuildCommandRejectsUnknownAnalysis(t *testing.T) {
	_, err := BuildCommand(CommandOptions{Analysis: models.Analysis("dsm")})
	if !errors.Is(err, ErrUnknownAnalysis) {
		t.Errorf("Expected ErrUnknownAnalysis, got %v", err)
	}
}
