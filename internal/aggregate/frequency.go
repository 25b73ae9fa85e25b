// Package aggregate turns per-host TLS findings into frequency tables and
// the attack/vendor/product breakdown.
package aggregate

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/hakim/tlsgrind/internal/models"
)

// Entry is one row of a frequency table
type Entry struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// FrequencyTable is ordered by quantity descending, then name ascending
type FrequencyTable []Entry

// Count flattens the requested field of every host and counts each distinct name
func Count(hosts models.HostMap, field models.Field) FrequencyTable {
	counts := make(map[string]int)
	for _, ip := range hosts.IPs() {
		for _, name := range hosts[ip].Names(field) {
			counts[name]++
		}
	}

	table := make(FrequencyTable, 0, len(counts))
	for name, n := range counts {
		table = append(table, Entry{Name: name, Quantity: n})
	}
	sort.Slice(table, func(i, j int) bool {
		if table[i].Quantity != table[j].Quantity {
			return table[i].Quantity > table[j].Quantity
		}
		return table[i].Name < table[j].Name
	})
	return table
}

// Total returns the sum of all quantities
func (t FrequencyTable) Total() int {
	total := 0
	for _, e := range t {
		total += e.Quantity
	}
	return total
}

// Get returns the quantity recorded for name
func (t FrequencyTable) Get(name string) (int, bool) {
	for _, e := range t {
		if e.Name == name {
			return e.Quantity, true
		}
	}
	return 0, false
}

// Top returns at most the n most frequent entries. n <= 0 returns the whole table.
func (t FrequencyTable) Top(n int) FrequencyTable {
	if n <= 0 || n >= len(t) {
		return t
	}
	return t[:n]
}

// MarshalJSON encodes the table as a JSON object whose keys keep table order
func (t FrequencyTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(e.Quantity)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an ordered JSON object back into a table, keeping key order
func (t *FrequencyTable) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	// Opening brace
	if _, err := dec.Token(); err != nil {
		return err
	}

	out := FrequencyTable{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var n int
		if err := dec.Decode(&n); err != nil {
			return err
		}
		out = append(out, Entry{Name: name, Quantity: n})
	}

	*t = out
	return nil
}
