// Package service registers the filesorter daemon with the host init system:
// a systemd unit on Linux and a scheduled task on Windows.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"text/template"
)

const (
	// UnitName is the systemd unit and scheduled task base name.
	UnitName = "filesorter"
	// DefaultUnitPath is where Install writes the systemd unit.
	DefaultUnitPath = "/etc/systemd/system/" + UnitName + ".service"
	// TaskName is the Windows scheduled task name.
	TaskName = "FileSorterDaemon"
)

// ErrUnsupported reports a platform without a service backend.
var ErrUnsupported = errors.New("service installation not supported on this platform")

// Spec describes the daemon invocation to register.
type Spec struct {
	Executable string
	Root       string
	Interval   int
	ConfigPath string
	User       string
	WorkingDir string
}

// SpecFor fills a Spec from the running process: its executable, user, and
// working directory.
func SpecFor(root string, interval int, configPath string) (Spec, error) {
	exe, err := os.Executable()
	if err != nil {
		return Spec{}, fmt.Errorf("resolve executable: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Spec{}, fmt.Errorf("resolve root: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return Spec{}, fmt.Errorf("resolve working directory: %w", err)
	}
	username := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	return Spec{
		Executable: exe,
		Root:       abs,
		Interval:   interval,
		ConfigPath: configPath,
		User:       username,
		WorkingDir: wd,
	}, nil
}

func (s Spec) validate() error {
	switch {
	case strings.TrimSpace(s.Executable) == "":
		return errors.New("service spec: executable is required")
	case strings.TrimSpace(s.Root) == "":
		return errors.New("service spec: root is required")
	case s.Interval < 1:
		return fmt.Errorf("service spec: interval must be at least 1 second, got %d", s.Interval)
	}
	return nil
}

// DaemonArgs returns the command line the service runs.
func (s Spec) DaemonArgs() []string {
	args := []string{s.Executable, "daemon", "--path", s.Root, "--interval", strconv.Itoa(s.Interval)}
	if s.ConfigPath != "" {
		args = append(args, "--config", s.ConfigPath)
	}
	return args
}

var unitTemplate = template.Must(template.New("unit").Funcs(template.FuncMap{
	"command":   systemdCommand,
	"specifier": escapeSpecifiers,
}).Parse(`[Unit]
Description=File Sorter Daemon
After=network.target

[Service]
ExecStart={{ command .DaemonArgs }}
Restart=always
{{- if .User }}
User={{ .User }}
{{- end }}
{{- if .WorkingDir }}
WorkingDirectory={{ specifier .WorkingDir }}
{{- end }}

[Install]
WantedBy=default.target
`))

// RenderUnit renders the systemd unit for spec.
func RenderUnit(spec Spec) (string, error) {
	if err := spec.validate(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, spec); err != nil {
		return "", fmt.Errorf("render unit: %w", err)
	}
	return buf.String(), nil
}

// TaskArgs returns the schtasks arguments registering spec at system start.
func TaskArgs(spec Spec) []string {
	return []string{
		"/Create", "/F",
		"/TN", TaskName,
		"/SC", "ONSTART",
		"/RL", "HIGHEST",
		"/TR", windowsCommand(spec.DaemonArgs()),
	}
}

// escapeSpecifiers keeps systemd from expanding % sequences in a value.
func escapeSpecifiers(value string) string {
	return strings.ReplaceAll(value, "%", "%%")
}

// systemdCommand renders an ExecStart line. Besides % specifiers, systemd
// expands $VAR in command lines, so both are doubled.
func systemdCommand(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		arg = strings.ReplaceAll(escapeSpecifiers(arg), "$", "$$")
		if arg == "" || strings.ContainsAny(arg, " \t\"'\\") {
			quoted[i] = strconv.Quote(arg)
			continue
		}
		quoted[i] = arg
	}
	return strings.Join(quoted, " ")
}

func windowsCommand(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t") {
			quoted[i] = `"` + arg + `"`
			continue
		}
		quoted[i] = arg
	}
	return strings.Join(quoted, " ")
}

// Installer writes and activates the service definition.
type Installer struct {
	unitPath      string
	goos          string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewInstaller returns an installer for the current platform.
func NewInstaller() *Installer {
	return &Installer{unitPath: DefaultUnitPath, goos: runtime.GOOS}
}

// WithCommandRunner sets a custom command runner (for testing).
func (i *Installer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) *Installer {
	i.commandRunner = runner
	return i
}

// WithUnitPath overrides where the systemd unit is written.
func (i *Installer) WithUnitPath(path string) *Installer {
	i.unitPath = path
	return i
}

// WithPlatform overrides the target operating system.
func (i *Installer) WithPlatform(goos string) *Installer {
	i.goos = goos
	return i
}

// UnitPath returns the systemd unit location.
func (i *Installer) UnitPath() string {
	return i.unitPath
}

// Install registers spec with the platform service manager.
func (i *Installer) Install(ctx context.Context, spec Spec) error {
	switch i.goos {
	case "linux":
		return i.installSystemd(ctx, spec)
	case "windows":
		if err := spec.validate(); err != nil {
			return err
		}
		return i.run(ctx, "schtasks", TaskArgs(spec)...)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, i.goos)
	}
}

func (i *Installer) installSystemd(ctx context.Context, spec Spec) error {
	unit, err := RenderUnit(spec)
	if err != nil {
		return err
	}
	if err := os.WriteFile(i.unitPath, []byte(unit), 0o644); err != nil {
		return fmt.Errorf("write unit %s: %w", i.unitPath, err)
	}
	for _, args := range [][]string{
		{"daemon-reload"},
		{"enable", UnitName},
		{"start", UnitName},
	} {
		if err := i.run(ctx, "systemctl", args...); err != nil {
			return err
		}
	}
	return nil
}

func (i *Installer) run(ctx context.Context, name string, args ...string) error {
	if i.commandRunner != nil {
		return i.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}
