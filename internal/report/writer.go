package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hakim/tlsgrind/internal/aggregate"
	"github.com/hakim/tlsgrind/internal/models"
	"github.com/hakim/tlsgrind/internal/storage"
)

var (
	flatColumns      = []string{"ip", "vendor", "product", "port", "attacks", "bugs", "vulnerabilities"}
	frequencyColumns = []string{"name", "quantity"}
	groupedColumns   = []string{"attack", "vendor", "product", "versions", "ips", "quantity"}
)

// Writer saves processed results under a single output directory. Every
// file is replaced atomically, so one failing artifact never damages
// another or a previously written version of itself.
type Writer struct {
	Dir string
}

// NewWriter returns a writer rooted at dir
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// Path returns the full path of an output file
func (w *Writer) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// SaveJSON writes v as JSON indented with four spaces
func (w *Writer) SaveJSON(v any, name string) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("cannot encode %s as json: %w", name, err)
	}
	return w.write(name, data)
}

// SaveFlatCSV writes one row per host, sorted by product name
func (w *Writer) SaveFlatCSV(hosts models.HostMap, name string) error {
	ips := hosts.IPs()
	sort.SliceStable(ips, func(i, j int) bool {
		return hosts[ips[i]].Product < hosts[ips[j]].Product
	})

	rows := make([][]string, 0, len(ips))
	for _, ip := range ips {
		h := hosts[ip]
		rows = append(rows, []string{
			ip,
			h.Vendor,
			h.Product,
			h.Port,
			listCell(h.Attacks.Sorted()),
			listCell(h.Bugs.Sorted()),
			listCell(h.Vulnerabilities),
		})
	}
	return w.writeCSV(name, flatColumns, rows)
}

// SaveFrequencyCSV writes name/quantity rows in table order
func (w *Writer) SaveFrequencyCSV(table aggregate.FrequencyTable, name string) error {
	rows := make([][]string, 0, len(table))
	for _, e := range table {
		rows = append(rows, []string{e.Name, fmt.Sprint(e.Quantity)})
	}
	return w.writeCSV(name, frequencyColumns, rows)
}

// SaveGroupedCSV writes the attack/vendor/product breakdown. Each vendor of
// an attack starts with a "<vendor> (total)" row aggregating its products.
// The versions column is reserved and always empty.
func (w *Writer) SaveGroupedCSV(grouped aggregate.GroupedReport, name string) error {
	var rows [][]string
	for _, attack := range grouped {
		for _, vendor := range attack.Vendors {
			total := vendor.Total()
			rows = append(rows, []string{
				attack.Attack,
				vendor.Vendor + " (total)",
				"",
				"",
				listCell(total.IPs),
				fmt.Sprint(total.Quantity),
			})
			for _, p := range vendor.Products {
				rows = append(rows, []string{
					attack.Attack,
					vendor.Vendor,
					p.Product,
					"",
					listCell(p.IPs),
					fmt.Sprint(p.Quantity),
				})
			}
		}
	}
	return w.writeCSV(name, groupedColumns, rows)
}

func (w *Writer) writeCSV(name string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing %s header: %w", name, err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s rows: %w", name, err)
	}

	return w.write(name, buf.Bytes())
}

func (w *Writer) write(name string, data []byte) error {
	path := w.Path(name)
	if err := storage.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// listCell renders names the way the spreadsheets produced by earlier
// versions of this tool show them: ['A', 'B']
func listCell(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
