package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/arthur-debert/unisync/pkg/commands"
	"github.com/arthur-debert/unisync/pkg/manifest"
	"github.com/arthur-debert/unisync/pkg/migration"
	"github.com/arthur-debert/unisync/pkg/types"
)

// TerminalRenderer renders command results for terminal output.
type TerminalRenderer struct{}

// NewTerminalRenderer creates a new terminal renderer.
func NewTerminalRenderer() *TerminalRenderer {
	return &TerminalRenderer{}
}

// RenderStatus renders the status dashboard: mode, capability, game
// presence, aggregate health and one row per linked resource.
func (r *TerminalRenderer) RenderStatus(status *commands.StatusResult) string {
	var result strings.Builder

	result.WriteString(pterm.DefaultSection.Sprint("Unified Storage"))
	result.WriteString("\n")

	info := pterm.TableData{
		{"Mode", string(status.Mode)},
		{"Link capability", string(status.Capability)},
	}
	if status.SharedPath != "" {
		info = append(info, []string{"Shared path", status.SharedPath})
	}
	for _, g := range []types.Game{types.GameStable, types.GameLazer} {
		state := pterm.FgGray.Sprint("not running")
		if status.Running[g] {
			state = pterm.FgYellow.Sprint("running")
		}
		info = append(info, []string{fmt.Sprintf("osu! %s", g), state})
	}
	table, _ := pterm.DefaultTable.WithData(info).Srender()
	result.WriteString(table + "\n\n")

	result.WriteString(r.RenderHealth(status.Health))

	if len(status.Entries) > 0 {
		result.WriteString("\n\n")
		result.WriteString(r.renderEntries(status.Entries))
	}

	return strings.TrimRight(result.String(), "\n")
}

// RenderHealth renders aggregate link health counts.
func (r *TerminalRenderer) RenderHealth(health types.HealthReport) string {
	if health.Total() == 0 {
		return pterm.FgGray.Sprint("No linked resources yet")
	}

	parts := []string{
		pterm.FgGreen.Sprintf("%d active", health.Active),
	}
	if health.Broken > 0 {
		parts = append(parts, pterm.FgRed.Sprintf("%d broken", health.Broken))
	}
	if health.Stale > 0 {
		parts = append(parts, pterm.FgYellow.Sprintf("%d stale", health.Stale))
	}
	if health.Pending > 0 {
		parts = append(parts, pterm.FgCyan.Sprintf("%d pending", health.Pending))
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Links: %s", strings.Join(parts, ", ")))

	for _, p := range health.BrokenPaths {
		result.WriteString("\n" + pterm.FgRed.Sprintf("  ✗ %s", p))
	}
	for _, p := range health.StalePaths {
		result.WriteString("\n" + pterm.FgYellow.Sprintf("  ~ %s", p))
	}

	return result.String()
}

func (r *TerminalRenderer) renderEntries(entries []manifest.LinkedResource) string {
	data := pterm.TableData{{"Resource", "Type", "Status", "Links"}}
	for _, e := range entries {
		data = append(data, []string{
			string(e.ResourceType),
			string(e.LinkType),
			renderLinkStatus(e.Status),
			fmt.Sprintf("%d", len(e.LinkPaths)),
		})
	}
	table, _ := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	return table
}

func renderLinkStatus(s types.LinkStatus) string {
	switch s {
	case types.StatusActive:
		return pterm.FgGreen.Sprint(string(s))
	case types.StatusBroken:
		return pterm.FgRed.Sprint(string(s))
	case types.StatusStale:
		return pterm.FgYellow.Sprint(string(s))
	default:
		return pterm.FgCyan.Sprint(string(s))
	}
}

// RenderSyncResult renders the outcome of one sync pass.
func (r *TerminalRenderer) RenderSyncResult(res types.SyncResult) string {
	var result strings.Builder
	if res.LinksCreated == 0 && res.LinksRepaired == 0 {
		result.WriteString(pterm.FgGray.Sprint("Already in sync, nothing to do"))
	} else {
		var resources []string
		for _, rt := range res.ChangedResources {
			resources = append(resources, string(rt))
		}
		result.WriteString(pterm.FgGreen.Sprintf("Synced %s", strings.Join(resources, ", ")))
		result.WriteString(fmt.Sprintf("\n  %d links created, %d repaired", res.LinksCreated, res.LinksRepaired))
	}
	if res.Degraded > 0 {
		result.WriteString("\n" + pterm.FgYellow.Sprintf("  %d resources fell back to copies", res.Degraded))
	}
	result.WriteString(pterm.FgGray.Sprintf("\n  took %s", res.Duration.Round(time.Millisecond)))

	return result.String()
}

// RenderPlan renders a migration preview.
func (r *TerminalRenderer) RenderPlan(plan migration.Plan) string {
	var result strings.Builder

	result.WriteString(pterm.DefaultSection.Sprint("Migration Plan"))
	result.WriteString("\n")

	var resources []string
	for _, rt := range plan.ResourcesMoved {
		resources = append(resources, string(rt))
	}

	info := pterm.TableData{
		{"Shared path", plan.SharedPath},
		{"Resources", strings.Join(resources, ", ")},
		{"Space required", formatBytes(plan.BytesRequired)},
		{"Space free", formatBytes(plan.BytesFree)},
	}
	table, _ := pterm.DefaultTable.WithData(info).Srender()
	result.WriteString(table + "\n\n")

	result.WriteString("Steps:\n")
	for i, step := range plan.Steps {
		result.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
	}

	if plan.ElevationRisk {
		result.WriteString("\n" + pterm.FgYellow.Sprint(
			"Symlinks are not available here. The migration may need elevation or fall back to copies."))
	}

	return strings.TrimRight(result.String(), "\n")
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
