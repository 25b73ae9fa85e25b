// Package diff computes the delta between two processed-results directories.
// It reads the structured JSON files written by an ingestion run and produces
// a DiffResult that identifies which hosts appeared or disappeared and which
// attacks and bugs were newly detected or resolved between the runs.
package diff

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hakim/tlsgrind/internal/aggregate"
	"github.com/hakim/tlsgrind/internal/models"
)

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

// Files names the artifacts a snapshot is read from.
type Files struct {
	Results string
	Attacks string
	Bugs    string
}

// Snapshot holds the structured data loaded from one processed-results
// directory. Hosts is empty when the results file is absent.
type Snapshot struct {
	Dir     string
	Hosts   models.HostMap
	Attacks aggregate.FrequencyTable
	Bugs    aggregate.FrequencyTable
}

// LoadSnapshot reads the results JSON from dir. Frequency tables are read
// from their own files when present and recounted from the hosts otherwise.
// Missing files are treated as empty, not as an error, so a directory that
// was never written compares as "no hosts".
func LoadSnapshot(dir string, files Files) (*Snapshot, error) {
	snap := &Snapshot{Dir: dir, Hosts: make(models.HostMap)}

	data, err := readOptionalFile(filepath.Join(dir, files.Results))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", files.Results, err)
	}
	if data != nil {
		if err := json.Unmarshal(data, &snap.Hosts); err != nil {
			return nil, fmt.Errorf("loading %s: %w", files.Results, err)
		}
	}

	snap.Attacks, err = loadTable(dir, files.Attacks, snap.Hosts, models.FieldAttacks)
	if err != nil {
		return nil, err
	}
	snap.Bugs, err = loadTable(dir, files.Bugs, snap.Hosts, models.FieldBugs)
	if err != nil {
		return nil, err
	}

	return snap, nil
}

func loadTable(dir, name string, hosts models.HostMap, field models.Field) (aggregate.FrequencyTable, error) {
	if name == "" {
		return aggregate.Count(hosts, field), nil
	}

	data, err := readOptionalFile(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}
	if data == nil {
		return aggregate.Count(hosts, field), nil
	}

	var table aggregate.FrequencyTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}
	return table, nil
}

// readOptionalFile reads a file and returns its bytes. Returns (nil, nil) when
// the file does not exist so callers can treat absence as empty, not as error.
func readOptionalFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// ---------------------------------------------------------------------------
// DiffResult
// ---------------------------------------------------------------------------

// HostChange identifies a host that appeared or disappeared.
type HostChange struct {
	IP      string
	Port    string
	Vendor  string
	Product string
}

// FindingChange associates an attack or bug event with the host on which it
// occurred.
type FindingChange struct {
	Host  HostChange
	Field models.Field
	Name  string
}

// CountChange is a frequency-table entry whose quantity differs.
type CountChange struct {
	Name     string
	Previous int
	Current  int
}

// DiffResult holds the complete delta between a current and a previous
// snapshot. All slice fields are non-nil and sorted so callers can range over
// them unconditionally and render them deterministically.
type DiffResult struct {
	// Host changes
	NewHosts  []HostChange
	GoneHosts []HostChange

	// Finding changes, only for hosts present in both snapshots
	NewFindings      []FindingChange
	ResolvedFindings []FindingChange

	// Frequency changes
	AttackCounts []CountChange
	BugCounts    []CountChange

	// Summary counts
	CurrentHostCount  int
	PreviousHostCount int
}

// Empty reports whether the two snapshots are equivalent.
func (r *DiffResult) Empty() bool {
	return len(r.NewHosts) == 0 &&
		len(r.GoneHosts) == 0 &&
		len(r.NewFindings) == 0 &&
		len(r.ResolvedFindings) == 0 &&
		len(r.AttackCounts) == 0 &&
		len(r.BugCounts) == 0
}

// ---------------------------------------------------------------------------
// ComputeDiff
// ---------------------------------------------------------------------------

// ComputeDiff calculates the delta between current and previous snapshots.
// Both arguments must be non-nil; pass an empty Snapshot for the "no previous
// run" case.
func ComputeDiff(current, previous *Snapshot) *DiffResult {
	dr := &DiffResult{
		NewHosts:          []HostChange{},
		GoneHosts:         []HostChange{},
		NewFindings:       []FindingChange{},
		ResolvedFindings:  []FindingChange{},
		CurrentHostCount:  len(current.Hosts),
		PreviousHostCount: len(previous.Hosts),
	}

	diffHosts(dr, current.Hosts, previous.Hosts)
	dr.AttackCounts = diffCounts(current.Attacks, previous.Attacks)
	dr.BugCounts = diffCounts(current.Bugs, previous.Bugs)

	return dr
}

func hostChange(ip string, h models.HostRecord) HostChange {
	return HostChange{IP: ip, Port: h.Port, Vendor: h.Vendor, Product: h.Product}
}

// diffHosts walks both host maps in ip order.
func diffHosts(dr *DiffResult, current, previous models.HostMap) {
	for _, ip := range current.IPs() {
		curr := current[ip]
		prev, existed := previous[ip]
		if !existed {
			dr.NewHosts = append(dr.NewHosts, hostChange(ip, curr))
			continue
		}

		for _, field := range []models.Field{models.FieldAttacks, models.FieldBugs} {
			before := models.NewSet(prev.Names(field)...)
			after := models.NewSet(curr.Names(field)...)

			for _, name := range after.Sorted() {
				if !before.Has(name) {
					dr.NewFindings = append(dr.NewFindings, FindingChange{hostChange(ip, curr), field, name})
				}
			}
			for _, name := range before.Sorted() {
				if !after.Has(name) {
					dr.ResolvedFindings = append(dr.ResolvedFindings, FindingChange{hostChange(ip, curr), field, name})
				}
			}
		}
	}

	for _, ip := range previous.IPs() {
		if _, exists := current[ip]; !exists {
			dr.GoneHosts = append(dr.GoneHosts, hostChange(ip, previous[ip]))
		}
	}
}

// diffCounts lists every name whose quantity changed, sorted by name.
func diffCounts(current, previous aggregate.FrequencyTable) []CountChange {
	names := make(map[string]bool)
	for _, e := range current {
		names[e.Name] = true
	}
	for _, e := range previous {
		names[e.Name] = true
	}

	changes := []CountChange{}
	for name := range names {
		curr, _ := current.Get(name)
		prev, _ := previous.Get(name)
		if curr != prev {
			changes = append(changes, CountChange{Name: name, Previous: prev, Current: curr})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Name < changes[j].Name })
	return changes
}
