// Package ui renders live snapshots as a terminal dashboard. It is a
// thin view over model.Snapshot; all measurement lives in the sampler.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sjyi/dgxtop/internal/config"
	"github.com/sjyi/dgxtop/internal/model"
	"github.com/sjyi/dgxtop/internal/sampler"
)

// Model renders live snapshots from the sampler.
type Model struct {
	cfg       config.Config
	keys      KeyMap
	theme     theme
	smp       *sampler.Sampler
	latest    model.Snapshot
	stream    <-chan model.Snapshot
	ctxCancel context.CancelFunc
	width     int
	height    int
}

func New(cfg config.Config, smp *sampler.Sampler) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	return &Model{
		cfg:       cfg,
		keys:      DefaultKeyMap,
		theme:     themeByName(cfg.Theme),
		smp:       smp,
		stream:    smp.Stream(ctx),
		ctxCancel: cancel,
		width:     120,
		height:    40,
	}
}

type tickMsg struct{}

func tickCmd() tea.Cmd { return tea.Tick(time.Second/5, func(time.Time) tea.Msg { return tickMsg{} }) }

func (m *Model) Init() tea.Cmd { return tickCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.ctxCancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Faster):
			m.smp.Faster()
		case key.Matches(msg, m.keys.Slower):
			m.smp.Slower()
		}
	case tickMsg:
		select {
		case snap, ok := <-m.stream:
			if ok {
				m.latest = snap
			}
		default:
		}
		return m, tickCmd()
	}
	return m, nil
}

// theme maps the configured name to the palette.
type theme struct {
	primary  lipgloss.Color
	subtle   lipgloss.Color
	warning  lipgloss.Color
	critical lipgloss.Color
}

func themeByName(name string) theme {
	switch name {
	case "amber":
		return theme{primary: "214", subtle: "244", warning: "208", critical: "196"}
	case "blue":
		return theme{primary: "39", subtle: "244", warning: "214", critical: "196"}
	default: // green
		return theme{primary: "42", subtle: "244", warning: "214", critical: "196"}
	}
}

const (
	gaugeFill  = "█"
	gaugeEmpty = "░"
)

var sparkRunes = []rune(" ▁▂▃▄▅▆▇█")

func (m *Model) View() string {
	s := m.latest
	title := lipgloss.NewStyle().Bold(true).Foreground(m.theme.primary)
	subtle := lipgloss.NewStyle().Foreground(m.theme.subtle)

	header := title.Render("dgxtop") + "  " +
		subtle.Render(fmt.Sprintf("%s  up %s  every %.1fs",
			s.Timestamp.Format("Mon Jan 2 15:04:05"),
			formatUptime(s.Uptime),
			s.Interval.Seconds()))

	cpuCard := m.card("CPU",
		fmt.Sprintf("%s\nload %.2f %.2f %.2f  %dc  %.0f/%.0f MHz  %.0f°C",
			m.gauge(s.CPU.Usage, 28),
			s.CPU.Load1, s.CPU.Load5, s.CPU.Load15,
			s.CPU.Cores, s.CPU.FreqMHz, s.CPU.FreqMaxMHz, s.CPU.TempC))

	memPct := pct(s.Memory.UsedBytes, s.Memory.TotalBytes)
	memCard := m.card("Memory",
		fmt.Sprintf("%s\n%s/%s  cache %s  swap %3.0f%%",
			m.gauge(memPct, 28),
			formatSize(s.Memory.UsedBytes), formatSize(s.Memory.TotalBytes),
			formatSize(s.Memory.Cached),
			pct(s.Memory.SwapUsed, s.Memory.SwapTotal)))

	gpuCard := ""
	if len(s.GPUs) > 0 {
		lines := make([]string, 0, len(s.GPUs)+1)
		for _, g := range s.GPUs {
			lines = append(lines,
				fmt.Sprintf("%d %s %s %2.0f°C %4.0f/%4.0fW %4.0fMHz",
					g.Index, truncate(g.Name, 14), m.gauge(g.Util, 14),
					g.TempC, g.PowerDraw, g.PowerLimit, g.ClockMHz))
		}
		lines = append(lines, "util "+sparkline(s.History.GPUUtil, 30, 100))
		gpuCard = m.card("GPU", strings.Join(lines, "\n"))
	}

	diskCard := m.card("Disk", m.diskBody(s))
	netCard := m.card("Network", m.netBody(s))
	volCard := m.card("Volumes", m.volumeBody(s))

	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cpuCard, memCard, gpuCard)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, diskCard, netCard)

	return lipgloss.JoinVertical(lipgloss.Left, header, row1, row2, volCard)
}

func (m *Model) diskBody(s model.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %10s %10s %7s %7s %7s\n", "dev", "read", "write", "r-iops", "w-iops", "await")
	names := sortedKeys(s.Disks)
	for _, name := range names {
		d := s.Disks[name]
		fmt.Fprintf(&b, "%-10s %10s %10s %7.1f %7.1f %5.1fms\n",
			truncate(name, 10),
			formatRate(d.ReadBytesPerSec), formatRate(d.WriteBytesPerSec),
			d.ReadIOsPerSec, d.WriteIOsPerSec, d.AwaitMS)
	}
	scale := maxScale(s.History.DiskRead, s.History.DiskWrite)
	fmt.Fprintf(&b, "r %s\nw %s",
		sparkline(s.History.DiskRead, 40, scale),
		sparkline(s.History.DiskWrite, 40, scale))
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) netBody(s model.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-14s %10s %10s %8s %6s\n", "iface", "rx", "tx", "pkts/s", "errs")
	for _, r := range s.Interfaces {
		name := r.Interface
		if r.RoCE {
			name += "*"
		}
		fmt.Fprintf(&b, "%-14s %10s %10s %8.0f %6d\n",
			truncate(name, 14),
			formatRate(r.RxBytesPerSec), formatRate(r.TxBytesPerSec),
			r.RxPacketsPerSec+r.TxPacketsPerSec, r.RxErrors+r.TxErrors)
	}
	scale := maxScale(s.History.NetRx, s.History.NetTx)
	fmt.Fprintf(&b, "rx %s\ntx %s",
		sparkline(s.History.NetRx, 40, scale),
		sparkline(s.History.NetTx, 40, scale))
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) volumeBody(s model.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-16s %9s %9s %5s %10s %10s\n",
		"device", "mount", "size", "free", "use", "read", "write")
	for _, v := range s.Volumes {
		fmt.Fprintf(&b, "%-20s %-16s %9s %9s %4.0f%% %10s %10s\n",
			truncate(v.Device, 20), truncate(v.MountPoint, 16),
			formatSize(v.TotalBytes), formatSize(v.FreeBytes), v.UsedPercent,
			formatRate(v.ReadBytesPerSec), formatRate(v.WriteBytesPerSec))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) card(title, body string) string {
	label := lipgloss.NewStyle().Foreground(m.theme.primary).Bold(true)
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.subtle).
		Padding(0, 1).
		MarginRight(1)
	return style.Render(label.Render(title) + "\n" + body)
}

// gauge renders a horizontal bar, red past the redline threshold.
func (m *Model) gauge(p float64, width int) string {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	filled := int((p / 100) * float64(width))
	if filled > width {
		filled = width
	}
	color := m.theme.primary
	if p >= m.cfg.Redline {
		color = m.theme.critical
	}
	bar := lipgloss.NewStyle().Foreground(color).
		Render(strings.Repeat(gaugeFill, filled))
	return fmt.Sprintf("[%s%s] %5.1f%%", bar, strings.Repeat(gaugeEmpty, width-filled), p)
}

// sparkline maps the last width samples onto block runes against the
// given scale.
func sparkline(values []float64, width int, scale float64) string {
	if scale <= 0 {
		scale = 1
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	var b strings.Builder
	for _, v := range values {
		if v < 0 {
			// Counter resets show as a gap rather than a phantom burst.
			v = 0
		}
		idx := int(v / scale * float64(len(sparkRunes)-1))
		if idx >= len(sparkRunes) {
			idx = len(sparkRunes) - 1
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

// maxScale picks a shared y-axis for paired series, floored at 1 KiB/s
// so an idle machine does not render noise as full bars.
func maxScale(series ...[]float64) float64 {
	max := 1024.0
	for _, vals := range series {
		for _, v := range vals {
			if v > max {
				max = v
			}
		}
	}
	return max
}

func sortedKeys(m map[string]model.DiskRate) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatRate(v float64) string {
	switch {
	case v < 1024:
		return fmt.Sprintf("%.1f B/s", v)
	case v < 1024*1024:
		return fmt.Sprintf("%.1f KB/s", v/1024)
	case v < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB/s", v/(1024*1024))
	default:
		return fmt.Sprintf("%.1f GB/s", v/(1024*1024*1024))
	}
}

func formatSize(v uint64) string {
	f := float64(v)
	switch {
	case f < 1024:
		return fmt.Sprintf("%.0f B", f)
	case f < 1024*1024:
		return fmt.Sprintf("%.1f KB", f/1024)
	case f < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB", f/(1024*1024))
	case f < 1024*1024*1024*1024:
		return fmt.Sprintf("%.1f GB", f/(1024*1024*1024))
	default:
		return fmt.Sprintf("%.1f TB", f/(1024*1024*1024*1024))
	}
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd%dh", days, hours)
	}
	return fmt.Sprintf("%dh%dm", hours, mins)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func pct(used, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(used) * 100 / float64(total)
}

// Run starts the dashboard on the alternate screen and blocks until
// quit.
func Run(cfg config.Config, smp *sampler.Sampler, logger *slog.Logger) error {
	prog := tea.NewProgram(New(cfg, smp), tea.WithAltScreen())
	logger.Info("dashboard starting", "interval", cfg.Interval)
	_, err := prog.Run()
	return err
}
