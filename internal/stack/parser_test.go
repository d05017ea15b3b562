package stack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roman-Andr/botstack/internal/model"
)

// descriptorYAML is a trimmed two-service descriptor exercising every
// shorthand form: bare and mapped ports, bind and volume mounts, read-only
// flags, command overrides, and the restart policy default.
const descriptorYAML = `
stack: cosmetic-bot
services:
  bot:
    build: .
    ports:
      - "8000:8000"
    volumes:
      - "./:/app"
  prometheus:
    image: prom/prometheus:latest
    ports:
      - "9090:9090"
    volumes:
      - "./prometheus.yml:/etc/prometheus/prometheus.yml"
      - "prometheus-data:/prometheus"
      - "/proc:/host/proc:ro"
    command:
      - "--config.file=/etc/prometheus/prometheus.yml"
      - "--storage.tsdb.retention.time=100y"
    restart: unless-stopped
volumes:
  prometheus-data: {}
`

// TestParse verifies normalization of a full descriptor: shorthand
// expansion, default restart policy, build tag derivation, and relative
// path resolution against the base directory.
func TestParse(t *testing.T) {
	st, err := Parse([]byte(descriptorYAML), "/srv/bot")
	require.NoError(t, err)

	assert.Equal(t, "cosmetic-bot", st.Name)
	assert.Equal(t, []string{"prometheus-data"}, st.Volumes)
	require.Len(t, st.Services, 2)

	bot := st.Services["bot"]
	assert.Equal(t, "/srv/bot", bot.BuildContext, "relative build context should resolve against baseDir")
	assert.Equal(t, "cosmetic-bot-bot", bot.Image, "build services get a stack-service tag")
	assert.Equal(t, model.RestartUnlessStopped, bot.Restart, "restart should default to unless-stopped")
	require.Len(t, bot.Mounts, 1)
	assert.Equal(t, model.MountBind, bot.Mounts[0].Kind)
	assert.Equal(t, "/srv/bot", bot.Mounts[0].Source)
	assert.Equal(t, "/app", bot.Mounts[0].Target)

	prom := st.Services["prometheus"]
	assert.Equal(t, "prom/prometheus:latest", prom.Image)
	require.Len(t, prom.Ports, 1)
	assert.Equal(t, model.PortBinding{
		ServiceName: "prometheus", ContainerPort: 9090, HostPort: 9090, Protocol: "tcp",
	}, prom.Ports[0])

	require.Len(t, prom.Mounts, 3)
	assert.Equal(t, model.MountBind, prom.Mounts[0].Kind)
	assert.Equal(t, "/srv/bot/prometheus.yml", prom.Mounts[0].Source)
	assert.Equal(t, model.MountVolume, prom.Mounts[1].Kind)
	assert.Equal(t, "prometheus-data", prom.Mounts[1].Source)
	assert.True(t, prom.Mounts[2].ReadOnly, ":ro suffix should mark the mount read-only")

	assert.Contains(t, prom.Command, "--storage.tsdb.retention.time=100y")
}

// TestParse_Errors covers descriptor-level rejections.
func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing stack name", "services:\n  a:\n    image: x\n"},
		{"no services", "stack: s\n"},
		{"bad service name", "stack: s\nservices:\n  bad_name:\n    image: x\n"},
		{"bad restart", "stack: s\nservices:\n  a:\n    image: x\n    restart: sometimes\n"},
		{"bad port", "stack: s\nservices:\n  a:\n    image: x\n    ports: [\"1:2:3\"]\n"},
		{"bad port number", "stack: s\nservices:\n  a:\n    image: x\n    ports: [\"eight:80\"]\n"},
		{"bad mount option", "stack: s\nservices:\n  a:\n    image: x\n    volumes: [\"/p:/q:rx\"]\n"},
		{"bare mount", "stack: s\nservices:\n  a:\n    image: x\n    volumes: [\"justone\"]\n"},
		{"not yaml", "{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "/base")
			assert.Error(t, err)
		})
	}
}

// TestParsePortShorthand verifies bare, mapped, and protocol-suffixed forms.
func TestParsePortShorthand(t *testing.T) {
	pb, err := parsePortShorthand("svc", "9100")
	require.NoError(t, err)
	assert.Equal(t, 9100, pb.HostPort)
	assert.Equal(t, 9100, pb.ContainerPort)
	assert.Equal(t, "tcp", pb.Protocol)

	pb, err = parsePortShorthand("svc", "8080:80/udp")
	require.NoError(t, err)
	assert.Equal(t, 8080, pb.HostPort)
	assert.Equal(t, 80, pb.ContainerPort)
	assert.Equal(t, "udp", pb.Protocol)
}

// TestLoad verifies filesystem loading, including the dedicated exit code
// for a missing descriptor.
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "botstack.yml")
	require.NoError(t, os.WriteFile(path, []byte(descriptorYAML), 0o644))

	st, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cosmetic-bot", st.Name)
	assert.Equal(t, dir, st.Services["bot"].BuildContext, "baseDir should be the descriptor's directory")

	_, err = Load(filepath.Join(dir, "missing.yml"))
	require.Error(t, err)
	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitStackFileNotFound, cliErr.Code)
}
