// Package hostdata loads, queries and updates the recon host dataset that
// TLS findings are cross-referenced with.
package hostdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/hakim/tlsgrind/internal/models"
	"github.com/hakim/tlsgrind/internal/storage"
)

// Vulnerabilities holds the two independent vulnerability sources of a host
type Vulnerabilities struct {
	Shodan  models.IDSet `json:"shodan_vulnerabilities"`
	Vulners models.IDSet `json:"vulners_vulnerabilities"`
}

// Host is one entry of the dataset. Fields other than vulnerabilities,
// attacks and bugs are kept verbatim so a save does not lose them.
type Host struct {
	Vulnerabilities *Vulnerabilities
	Attacks         models.Set
	Bugs            models.Set

	fields map[string]json.RawMessage
}

// UnmarshalJSON decodes a host object, keeping unknown fields
func (h *Host) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*h = Host{fields: fields}

	if raw, ok := fields["vulnerabilities"]; ok && !isNull(raw) {
		var v Vulnerabilities
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("vulnerabilities: %w", err)
		}
		h.Vulnerabilities = &v
	}

	if raw, ok := fields["attacks"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &h.Attacks); err != nil {
			return fmt.Errorf("attacks: %w", err)
		}
	}

	if raw, ok := fields["bugs"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &h.Bugs); err != nil {
			return fmt.Errorf("bugs: %w", err)
		}
	}

	return nil
}

// MarshalJSON encodes the host with its preserved fields
func (h Host) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(h.fields)+3)
	for k, v := range h.fields {
		out[k] = v
	}

	if _, ok := out["vulnerabilities"]; !ok && h.Vulnerabilities != nil {
		raw, err := json.Marshal(h.Vulnerabilities)
		if err != nil {
			return nil, err
		}
		out["vulnerabilities"] = raw
	}

	if h.Attacks != nil {
		raw, err := json.Marshal(h.Attacks)
		if err != nil {
			return nil, err
		}
		out["attacks"] = raw
	}

	if h.Bugs != nil {
		raw, err := json.Marshal(h.Bugs)
		if err != nil {
			return nil, err
		}
		out["bugs"] = raw
	}

	return json.Marshal(out)
}

// Field returns a preserved raw field, e.g. "ip" or "country"
func (h Host) Field(name string) (json.RawMessage, bool) {
	raw, ok := h.fields[name]
	return raw, ok
}

// Dataset maps host ip to its recon record
type Dataset map[string]*Host

// Has reports whether the ip is part of the dataset
func (d Dataset) Has(ip string) bool {
	_, ok := d[ip]
	return ok
}

// Vulnerabilities returns the deduplicated union of the Shodan and Vulners
// identifiers known for ip, sorted. Unknown hosts and hosts without a
// vulnerabilities field yield an empty list.
func (d Dataset) Vulnerabilities(ip string) []string {
	host, ok := d[ip]
	if !ok || host == nil || host.Vulnerabilities == nil {
		return []string{}
	}

	union := make(models.IDSet, len(host.Vulnerabilities.Shodan)+len(host.Vulnerabilities.Vulners))
	for id := range host.Vulnerabilities.Shodan {
		union[id] = struct{}{}
	}
	for id := range host.Vulnerabilities.Vulners {
		union[id] = struct{}{}
	}
	return union.Sorted()
}

// Apply merges ingestion deltas into the dataset. A non-nil set overwrites
// the host's field; nil sets leave it untouched. Deltas for unknown ips are
// ignored. It returns the number of hosts changed.
func (d Dataset) Apply(deltas []models.Delta) int {
	changed := 0
	for _, delta := range deltas {
		host, ok := d[delta.IP]
		if !ok || host == nil {
			continue
		}
		touched := false
		if delta.Attacks != nil {
			host.Attacks = delta.Attacks.Clone()
			touched = true
		}
		if delta.Bugs != nil {
			host.Bugs = delta.Bugs.Clone()
			touched = true
		}
		if touched {
			changed++
		}
	}
	return changed
}

// Load reads a dataset file. Both the recon tool's list form
// ([{"ip": ..., ...}, ...]) and an object keyed by ip are accepted.
func Load(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading host dataset: %w", err)
	}

	d, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing host dataset %s: %w", path, err)
	}
	return d, nil
}

// Decode parses dataset JSON
func Decode(data []byte) (Dataset, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || isNull(data) {
		return Dataset{}, nil
	}

	d := make(Dataset)
	switch data[0] {
	case '[':
		var hosts []*Host
		if err := json.Unmarshal(data, &hosts); err != nil {
			return nil, err
		}
		for i, h := range hosts {
			if h == nil {
				continue
			}
			raw, ok := h.fields["ip"]
			if !ok {
				return nil, fmt.Errorf("host #%d has no ip field", i)
			}
			var ip string
			if err := json.Unmarshal(raw, &ip); err != nil {
				return nil, fmt.Errorf("host #%d: ip: %w", i, err)
			}
			d[ip] = h
		}
	case '{':
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("expected a list or an object of hosts")
	}
	return d, nil
}

// Save writes the dataset in list form, ordered by ip
func (d Dataset) Save(path string) error {
	ips := make([]string, 0, len(d))
	for ip := range d {
		ips = append(ips, ip)
	}
	sort.Strings(ips)

	hosts := make([]*Host, 0, len(ips))
	for _, ip := range ips {
		h := d[ip]
		if h == nil {
			continue
		}
		if _, ok := h.fields["ip"]; !ok {
			if h.fields == nil {
				h.fields = make(map[string]json.RawMessage)
			}
			raw, _ := json.Marshal(ip)
			h.fields["ip"] = raw
		}
		hosts = append(hosts, h)
	}

	data, err := json.MarshalIndent(hosts, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding host dataset: %w", err)
	}

	if err := storage.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("writing host dataset: %w", err)
	}
	return nil
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
