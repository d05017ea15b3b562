// default.go defines the canonical botstack topology: the Telegram bot
// service plus its observability sidecars (Grafana, Prometheus,
// node-exporter), composed on one host and wired only through published
// ports and mounted paths.
package stack

import (
	"path/filepath"

	"github.com/Roman-Andr/botstack/internal/model"
)

// MountExcludeRegex is the node-exporter filesystem collector exclusion
// pattern. It filters out pseudo-filesystems and docker-internal overlay
// and netns mountpoints so that restarting the exporter, or the engine
// itself, never double-counts host filesystems in scraped metrics.
const MountExcludeRegex = `^/(sys|proc|dev|host|etc|rootfs/var/lib/docker/containers|rootfs/var/lib/docker/overlay2|rootfs/run/docker/netns|rootfs/var/lib/docker/aufs)($|/)`

// RetentionTime is the Prometheus sample retention. 100 years is
// effectively unbounded: samples ingested at any time T remain queryable
// for longer than any realistic operational window.
const RetentionTime = "100y"

// Default published ports of the canonical stack.
const (
	BotPort          = 8000
	GrafanaPort      = 3000
	PrometheusPort   = 9090
	NodeExporterPort = 9100
)

// Default returns the canonical four-service stack rooted at baseDir.
// baseDir is the bot's working directory on the host; it holds the bot's
// build context and the Prometheus configuration files (prometheus.yml,
// web.yml).
//
// The returned stack always passes Validate, and the descriptor written
// by `botstack init` renders this same topology.
func Default(baseDir string) *Stack {
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Clean(filepath.Join(baseDir, p))
	}

	return &Stack{
		Name: "cosmetic-bot",
		Volumes: []string{
			"grafana-configs",
			"grafana-data",
			"prometheus-configs",
			"prometheus-data",
		},
		Services: map[string]Service{
			"bot": {
				Name:         "bot",
				Image:        "cosmetic-bot-bot",
				BuildContext: abs("."),
				Ports: []model.PortBinding{
					{ServiceName: "bot", ContainerPort: BotPort, HostPort: BotPort, Protocol: "tcp"},
				},
				Mounts: []model.Mount{
					{Kind: model.MountBind, Source: abs("."), Target: "/app"},
				},
				Restart: model.RestartUnlessStopped,
			},
			"grafana": {
				Name:  "grafana",
				Image: "grafana/grafana:latest",
				Ports: []model.PortBinding{
					{ServiceName: "grafana", ContainerPort: GrafanaPort, HostPort: GrafanaPort, Protocol: "tcp"},
				},
				Mounts: []model.Mount{
					{Kind: model.MountVolume, Source: "grafana-data", Target: "/var/lib/grafana"},
					{Kind: model.MountVolume, Source: "grafana-configs", Target: "/etc/grafana"},
				},
				Restart: model.RestartUnlessStopped,
			},
			"prometheus": {
				Name:  "prometheus",
				Image: "prom/prometheus:latest",
				Ports: []model.PortBinding{
					{ServiceName: "prometheus", ContainerPort: PrometheusPort, HostPort: PrometheusPort, Protocol: "tcp"},
				},
				Mounts: []model.Mount{
					{Kind: model.MountBind, Source: abs("prometheus.yml"), Target: "/etc/prometheus/prometheus.yml"},
					{Kind: model.MountBind, Source: abs("web.yml"), Target: "/etc/prometheus/web.yml"},
					{Kind: model.MountVolume, Source: "prometheus-data", Target: "/prometheus"},
					{Kind: model.MountVolume, Source: "prometheus-configs", Target: "/etc/prometheus/configs"},
				},
				Command: []string{
					"--config.file=/etc/prometheus/prometheus.yml",
					"--web.config.file=/etc/prometheus/web.yml",
					"--storage.tsdb.retention.time=" + RetentionTime,
					"--storage.tsdb.path=/prometheus",
				},
				Restart: model.RestartUnlessStopped,
			},
			"node-exporter": {
				Name:  "node-exporter",
				Image: "prom/node-exporter:latest",
				Ports: []model.PortBinding{
					{ServiceName: "node-exporter", ContainerPort: NodeExporterPort, HostPort: NodeExporterPort, Protocol: "tcp"},
				},
				Mounts: []model.Mount{
					{Kind: model.MountBind, Source: "/proc", Target: "/host/proc", ReadOnly: true},
					{Kind: model.MountBind, Source: "/sys", Target: "/host/sys", ReadOnly: true},
					{Kind: model.MountBind, Source: "/", Target: "/rootfs", ReadOnly: true},
				},
				Command: []string{
					"--path.procfs=/host/proc",
					"--path.sysfs=/host/sys",
					"--collector.filesystem.mount-points-exclude=" + MountExcludeRegex,
				},
				Restart: model.RestartUnlessStopped,
			},
		},
	}
}
