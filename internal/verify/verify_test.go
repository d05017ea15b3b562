package verify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roman-Andr/botstack/internal/model"
	"github.com/Roman-Andr/botstack/internal/stack"
)

// TestReport verifies failure counting and exit-code mapping.
func TestReport(t *testing.T) {
	report := &Report{
		Stack: "cosmetic-bot",
		Results: []CheckResult{
			{Name: "services-running", Detail: "all 4 services running"},
			{Name: "ports-reachable", Err: errors.New("port 9090 not reachable")},
		},
	}

	assert.Equal(t, 1, report.Failed())
	assert.False(t, report.OK())

	err := report.Err()
	require.Error(t, err)
	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitVerifyFailed, cliErr.Code)

	report.Results[1].Err = nil
	assert.True(t, report.OK())
	assert.NoError(t, report.Err())
}

// TestRetentionFromStack verifies the retention flag is read from the
// descriptor and that the canonical default applies when absent.
func TestRetentionFromStack(t *testing.T) {
	st := stack.Default(".")
	assert.Equal(t, "100y", retentionFromStack(st))

	st = &stack.Stack{
		Name: "custom",
		Services: map[string]stack.Service{
			"metrics": {
				Name:    "metrics",
				Image:   "prom/prometheus:latest",
				Command: []string{"--storage.tsdb.retention.time=30d"},
			},
		},
	}
	assert.Equal(t, "30d", retentionFromStack(st))

	svc := st.Services["metrics"]
	svc.Command = nil
	st.Services["metrics"] = svc
	assert.Equal(t, stack.RetentionTime, retentionFromStack(st))
}
