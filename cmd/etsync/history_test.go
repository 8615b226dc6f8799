package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinicops/etransfer-sync/internal/cli"
	"github.com/clinicops/etransfer-sync/internal/model"
)

func TestHistoryCmdFlags(t *testing.T) {
	flag := historyCmd().Flag("limit")
	assert.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "10", flag.DefValue)
}

func TestInspectCmdFlags(t *testing.T) {
	flag := inspectCmd().Flag("rows")
	assert.NotNil(t, flag, "rows flag should exist")
	assert.Equal(t, "5", flag.DefValue)
}

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		name   string
		status model.RunStatus
		want   string
	}{
		{name: "succeeded", status: model.RunStatusSucceeded, want: cli.SuccessIcon},
		{name: "failed", status: model.RunStatusFailed, want: cli.ErrorIcon},
		{name: "cancelled", status: model.RunStatusCancelled, want: cli.WarningIcon},
		{name: "dry run", status: model.RunStatusDryRun, want: cli.InfoIcon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusIcon(tt.status))
		})
	}
}
