package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/hakim/tlsgrind/internal/diff"
	"github.com/hakim/tlsgrind/internal/models"
	"github.com/hakim/tlsgrind/internal/storage"
)

// WriteDiffReport generates a markdown report capturing the delta between two
// processed-results directories and writes it to outputPath.
func WriteDiffReport(result *diff.DiffResult, previousDir, currentDir, outputPath string) error {
	var b strings.Builder

	b.WriteString("# TLS-Scanner Diff Report\n\n")
	b.WriteString(fmt.Sprintf("**Previous:** %s\n", previousDir))
	b.WriteString(fmt.Sprintf("**Current:** %s\n", currentDir))
	b.WriteString(fmt.Sprintf("**Date:** %s\n\n", time.Now().UTC().Format("2006-01-02 15:04:05 UTC")))

	if result.Empty() {
		b.WriteString("No changes detected.\n")
		return writeFile(outputPath, b.String())
	}

	writeDiffSummaryTable(&b, result)
	writeHostChanges(&b, "New Hosts", "+", result.NewHosts)
	writeHostChanges(&b, "Gone Hosts", "-", result.GoneHosts)
	writeFindingChanges(&b, "Newly Detected", "+", result.NewFindings)
	writeFindingChanges(&b, "Resolved", "-", result.ResolvedFindings)
	writeCountChanges(&b, "Attack Counts", result.AttackCounts)
	writeCountChanges(&b, "Bug Counts", result.BugCounts)

	return writeFile(outputPath, b.String())
}

// writeDiffSummaryTable writes the host and finding comparison table.
func writeDiffSummaryTable(b *strings.Builder, r *diff.DiffResult) {
	b.WriteString("## Summary\n\n")
	b.WriteString("| Category | Previous | Current | Change |\n")
	b.WriteString("|----------|----------|---------|--------|\n")
	b.WriteString(fmt.Sprintf("| Hosts | %d | %d | %s |\n",
		r.PreviousHostCount, r.CurrentHostCount, formatChange(len(r.NewHosts), len(r.GoneHosts))))
	b.WriteString(fmt.Sprintf("| Findings | - | - | %s |\n",
		formatChange(len(r.NewFindings), len(r.ResolvedFindings))))
	b.WriteString("\n")
}

// writeHostChanges renders a host section. Skipped when empty.
func writeHostChanges(b *strings.Builder, title, sign string, hosts []diff.HostChange) {
	if len(hosts) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("## %s (%s%d)\n\n", title, sign, len(hosts)))
	for _, h := range hosts {
		b.WriteString(fmt.Sprintf("- %s:%s (%s %s)\n", h.IP, h.Port, h.Vendor, h.Product))
	}
	b.WriteString("\n")
}

// writeFindingChanges renders attack and bug events as a table. Skipped when empty.
func writeFindingChanges(b *strings.Builder, title, sign string, changes []diff.FindingChange) {
	if len(changes) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("## %s (%s%d)\n\n", title, sign, len(changes)))
	b.WriteString("| Host | Product | Type | Name |\n")
	b.WriteString("|------|---------|------|------|\n")
	for _, c := range changes {
		kind := "attack"
		if c.Field == models.FieldBugs {
			kind = "bug"
		}
		b.WriteString(fmt.Sprintf("| %s:%s | %s %s | %s | %s |\n",
			c.Host.IP, c.Host.Port, c.Host.Vendor, c.Host.Product, kind, c.Name))
	}
	b.WriteString("\n")
}

// writeCountChanges renders frequency changes. Skipped when empty.
func writeCountChanges(b *strings.Builder, title string, changes []diff.CountChange) {
	if len(changes) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("## %s\n\n", title))
	b.WriteString("| Name | Previous | Current |\n")
	b.WriteString("|------|----------|---------|\n")
	for _, c := range changes {
		b.WriteString(fmt.Sprintf("| %s | %d | %d |\n", c.Name, c.Previous, c.Current))
	}
	b.WriteString("\n")
}

// formatChange returns a human-readable change string such as "+3 / -1".
// When there are no additions and no removals it returns "none".
func formatChange(added, removed int) string {
	if added == 0 && removed == 0 {
		return "none"
	}
	parts := make([]string, 0, 2)
	if added > 0 {
		parts = append(parts, fmt.Sprintf("+%d", added))
	}
	if removed > 0 {
		parts = append(parts, fmt.Sprintf("-%d", removed))
	}
	return strings.Join(parts, " / ")
}

func writeFile(outputPath, content string) error {
	if err := storage.WriteFileAtomic(outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing report to %s: %w", outputPath, err)
	}
	return nil
}
