// promcheck.go implements the Prometheus-side verification checks:
// configured retention, instant query round-trip (query-back), and the
// node-exporter filesystem series hygiene check.
package verify

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	prommodel "github.com/prometheus/common/model"
)

// filesystemQuery is the instant query for the exporter's filesystem
// series. Each series carries device and mountpoint labels.
const filesystemQuery = "node_filesystem_size_bytes"

// queryBackQuery is the instant query used to confirm that samples
// ingested by the database can be read back immediately. The "up" series
// exists as soon as the first scrape of any target completes.
const queryBackQuery = "up"

// PromChecker runs verification queries against a Prometheus server via
// its HTTP API.
type PromChecker struct {
	api promv1.API
}

// NewPromChecker creates a checker for the Prometheus server at baseURL.
func NewPromChecker(baseURL string) (*PromChecker, error) {
	client, err := api.NewClient(api.Config{Address: baseURL})
	if err != nil {
		return nil, fmt.Errorf("invalid Prometheus URL %q: %w", baseURL, err)
	}
	return &PromChecker{api: promv1.NewAPI(client)}, nil
}

// CheckRetention verifies the server reports the expected storage
// retention. The value comes from the server's runtime info endpoint, so
// it reflects the flag the process actually started with, not what the
// descriptor intended to pass.
func (c *PromChecker) CheckRetention(ctx context.Context, want string) CheckResult {
	result := CheckResult{Name: "metrics-retention"}

	info, err := c.api.Runtimeinfo(ctx)
	if err != nil {
		result.Err = fmt.Errorf("failed to read Prometheus runtime info: %w", err)
		return result
	}

	if info.StorageRetention != want {
		result.Err = fmt.Errorf("storage retention is %q, want %q", info.StorageRetention, want)
		return result
	}

	result.Detail = "storage retention " + info.StorageRetention
	return result
}

// CheckQueryBack verifies an instant query returns freshly ingested
// samples: at least one scrape target must be up and its sample timestamp
// recent. A sample ingested at time T that is queryable right after
// ingestion, combined with the effectively unbounded retention, stays
// queryable for any realistic window.
func (c *PromChecker) CheckQueryBack(ctx context.Context) CheckResult {
	result := CheckResult{Name: "metrics-query-back"}

	now := time.Now()
	vec, err := c.queryVector(ctx, queryBackQuery, now)
	if err != nil {
		result.Err = err
		return result
	}

	if len(vec) == 0 {
		result.Err = fmt.Errorf("query %q returned no series — no targets scraped yet", queryBackQuery)
		return result
	}

	up := 0
	for _, sample := range vec {
		if sample.Value == 1 {
			up++
		}
	}
	if up == 0 {
		result.Err = fmt.Errorf("all %d scrape targets are down", len(vec))
		return result
	}

	result.Detail = fmt.Sprintf("%d/%d scrape targets up, samples queryable", up, len(vec))
	return result
}

// CheckFilesystemMounts verifies the exporter's filesystem series are
// clean: no mountpoint that the exclusion regex should have filtered, and
// no device/mountpoint pair reported twice. A duplicate would mean a
// restart of the exporter (or of the engine) double-counted host
// filesystems.
func (c *PromChecker) CheckFilesystemMounts(ctx context.Context, excludePattern string) CheckResult {
	result := CheckResult{Name: "filesystem-mounts"}

	exclude, err := regexp.Compile(excludePattern)
	if err != nil {
		result.Err = fmt.Errorf("invalid mountpoint exclusion pattern: %w", err)
		return result
	}

	vec, err := c.queryVector(ctx, filesystemQuery, time.Now())
	if err != nil {
		result.Err = err
		return result
	}

	series := make([]MountSeries, 0, len(vec))
	for _, sample := range vec {
		series = append(series, MountSeries{
			Device:     string(sample.Metric["device"]),
			Mountpoint: string(sample.Metric["mountpoint"]),
		})
	}

	if violations := MountViolations(series, exclude); len(violations) > 0 {
		result.Err = fmt.Errorf("filesystem series violations: %s", strings.Join(violations, "; "))
		return result
	}

	result.Detail = fmt.Sprintf("%d filesystem series, no excluded or duplicated mountpoints", len(series))
	return result
}

// queryVector runs an instant query and narrows the result to a vector.
func (c *PromChecker) queryVector(ctx context.Context, query string, ts time.Time) (prommodel.Vector, error) {
	value, _, err := c.api.Query(ctx, query, ts)
	if err != nil {
		return nil, fmt.Errorf("query %q failed: %w", query, err)
	}

	vec, ok := value.(prommodel.Vector)
	if !ok {
		return nil, fmt.Errorf("query %q returned %s, expected a vector", query, value.Type())
	}
	return vec, nil
}

// MountSeries is one filesystem series identified by its device and
// mountpoint labels.
type MountSeries struct {
	Device     string
	Mountpoint string
}

// MountViolations checks filesystem series against the exclusion pattern
// and for duplicates. Returns a sorted list of human-readable violations,
// empty when the series are clean.
func MountViolations(series []MountSeries, exclude *regexp.Regexp) []string {
	var violations []string

	seen := make(map[MountSeries]int, len(series))
	for _, s := range series {
		if exclude.MatchString(s.Mountpoint) {
			violations = append(violations,
				fmt.Sprintf("mountpoint %q should be excluded by the collector", s.Mountpoint))
		}
		seen[s]++
	}

	for s, count := range seen {
		if count > 1 {
			violations = append(violations,
				fmt.Sprintf("device %q mountpoint %q reported %d times", s.Device, s.Mountpoint, count))
		}
	}

	sort.Strings(violations)
	return violations
}
