package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/hakim/tlsgrind/internal/aggregate"
	"github.com/hakim/tlsgrind/internal/models"
	"github.com/hakim/tlsgrind/internal/storage"
)

// Summary is everything the markdown overview is rendered from
type Summary struct {
	ReportDir       string
	Hosts           models.HostMap
	Attacks         aggregate.FrequencyTable
	Bugs            aggregate.FrequencyTable
	Vulnerabilities aggregate.FrequencyTable
	Grouped         aggregate.GroupedReport
	Skipped         []models.SkippedFile
	TopLimit        int
}

// WriteSummaryReport generates a markdown overview of a TLS ingestion run
// and writes it to the specified output path.
func WriteSummaryReport(s *Summary, outputPath string) error {
	var b strings.Builder

	// Header
	b.WriteString("# TLS-Scanner Results\n\n")
	b.WriteString(fmt.Sprintf("**Reports:** %s\n", s.ReportDir))
	b.WriteString(fmt.Sprintf("**Date:** %s\n", time.Now().UTC().Format("2006-01-02 15:04:05 UTC")))
	b.WriteString(fmt.Sprintf("**Hosts:** %d | **Skipped files:** %d | **Attacks found:** %d | **Bugs found:** %d\n\n",
		len(s.Hosts), len(s.Skipped), s.Attacks.Total(), s.Bugs.Total()))

	writeFrequencySection(&b, "Top Attacks", s.Attacks.Top(s.TopLimit))
	writeFrequencySection(&b, "Top Bugs", s.Bugs.Top(s.TopLimit))
	writeFrequencySection(&b, "Top Vulnerabilities", s.Vulnerabilities.Top(s.TopLimit))

	// Attack breakdown by vendor and product
	b.WriteString("## Affected Products\n\n")
	if len(s.Grouped) > 0 {
		for _, attack := range s.Grouped {
			b.WriteString(fmt.Sprintf("### %s (%d)\n\n", attack.Attack, attack.Quantity()))
			b.WriteString("| Vendor | Product | Hosts | Count |\n")
			b.WriteString("|--------|---------|-------|-------|\n")
			for _, vendor := range attack.Vendors {
				for _, p := range vendor.Products {
					b.WriteString(fmt.Sprintf("| %s | %s | %s | %d |\n",
						vendor.Vendor, p.Product, strings.Join(p.IPs, ", "), p.Quantity))
				}
			}
			b.WriteString("\n")
		}
	} else {
		b.WriteString("None found.\n\n")
	}

	// Skipped files
	b.WriteString("## Skipped Files\n\n")
	if len(s.Skipped) > 0 {
		b.WriteString("| File | Reason |\n")
		b.WriteString("|------|--------|\n")
		for _, f := range s.Skipped {
			b.WriteString(fmt.Sprintf("| %s | %s |\n", f.Name, f.Reason))
		}
	} else {
		b.WriteString("None.\n")
	}
	b.WriteString("\n")

	if err := storage.WriteFileAtomic(outputPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing report to %s: %w", outputPath, err)
	}

	return nil
}

func writeFrequencySection(b *strings.Builder, title string, table aggregate.FrequencyTable) {
	b.WriteString(fmt.Sprintf("## %s\n\n", title))
	if len(table) == 0 {
		b.WriteString("None found.\n\n")
		return
	}
	b.WriteString("| Name | Count |\n")
	b.WriteString("|------|-------|\n")
	for _, e := range table {
		b.WriteString(fmt.Sprintf("| %s | %d |\n", e.Name, e.Quantity))
	}
	b.WriteString("\n")
}
