package models

import "sort"

// Set is a collection of unique names. It encodes to JSON as {"name": true},
// the shape the recon host dataset stores findings in.
type Set map[string]bool

// NewSet returns a set holding the given names
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

// Add inserts a name into the set
func (s Set) Add(name string) {
	s[name] = true
}

// Has reports whether the name is present and confirmed
func (s Set) Has(name string) bool {
	return s[name]
}

// Sorted returns the confirmed names in ascending order
func (s Set) Sorted() []string {
	names := make([]string, 0, len(s))
	for n, ok := range s {
		if ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the set
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// HostKey identifies one report file: the host, the scanned port and the
// product the port was attributed to.
type HostKey struct {
	IP      string `json:"ip"`
	Port    string `json:"port"`
	Vendor  string `json:"vendor"`
	Product string `json:"product"`
}

// Address returns the "ip:port" form used in grouped reports
func (k HostKey) Address() string {
	return k.IP + ":" + k.Port
}

// HostRecord holds the TLS findings retained for one ip
type HostRecord struct {
	Vendor          string   `json:"vendor"`
	Product         string   `json:"product"`
	Port            string   `json:"port"`
	Attacks         Set      `json:"attacks"`
	Bugs            Set      `json:"bugs"`
	Vulnerabilities []string `json:"vulnerabilities"`
}

// Names returns the members of the requested field
func (h HostRecord) Names(f Field) []string {
	switch f {
	case FieldAttacks:
		return h.Attacks.Sorted()
	case FieldBugs:
		return h.Bugs.Sorted()
	case FieldVulnerabilities:
		return h.Vulnerabilities
	default:
		return nil
	}
}

// HostMap is the per-ip result set of one ingestion run
type HostMap map[string]HostRecord

// IPs returns the keys of the map in ascending order
func (m HostMap) IPs() []string {
	ips := make([]string, 0, len(m))
	for ip := range m {
		ips = append(ips, ip)
	}
	sort.Strings(ips)
	return ips
}

// Delta is the attack/bug overwrite an ingestion run produced for a host of
// the external dataset. Nil sets mean "leave the existing field untouched".
type Delta struct {
	IP      string `json:"ip"`
	Attacks Set    `json:"attacks,omitempty"`
	Bugs    Set    `json:"bugs,omitempty"`
}

// SkippedFile records a report file that was excluded from aggregation
type SkippedFile struct {
	Name   string     `json:"name"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}
