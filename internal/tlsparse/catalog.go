// Package tlsparse decodes TLS-Scanner text reports and the filenames they
// are stored under.
package tlsparse

import (
	"regexp"

	"github.com/hakim/tlsgrind/internal/models"
)

// Rule extracts one catalog entry from a report. The entry is confirmed when
// the first "<name><whitespace>: <value>" line carries the literal value "true".
type Rule struct {
	Name    string
	pattern *regexp.Regexp
}

// NewRule builds the extraction rule for a catalog entry name
func NewRule(name string) Rule {
	return Rule{
		Name:    name,
		pattern: regexp.MustCompile(regexp.QuoteMeta(name) + `\s+: (\w+)`),
	}
}

// Confirmed reports whether the first value found for the entry is "true".
// Case matters: "True", "TRUE" and "1" are not confirmations.
func (r Rule) Confirmed(text string) bool {
	m := r.pattern.FindStringSubmatch(text)
	return m != nil && m[1] == "true"
}

// Catalog is a fixed list of recognised entries
type Catalog []Rule

// NewCatalog builds a catalog from entry names
func NewCatalog(names ...string) Catalog {
	c := make(Catalog, 0, len(names))
	for _, n := range names {
		c = append(c, NewRule(n))
	}
	return c
}

// Match returns the set of catalog entries confirmed in text
func (c Catalog) Match(text string) models.Set {
	found := models.NewSet()
	for _, rule := range c {
		if rule.Confirmed(text) {
			found.Add(rule.Name)
		}
	}
	return found
}

// Names returns the entry names in catalog order
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, rule := range c {
		names[i] = rule.Name
	}
	return names
}

// Contains reports whether name is a catalog entry
func (c Catalog) Contains(name string) bool {
	for _, rule := range c {
		if rule.Name == name {
			return true
		}
	}
	return false
}

// attackNames lists the attacks TLS-Scanner reports on
var attackNames = []string{
	"Padding Oracle",
	"Bleichenbacher",
	"CRIME",
	"Breach",
	"Invalid Curve",
	"Invalid Curve Ephemerals",
	"SSL Poodle",
	"TLS Poodle",
	"CVE-20162107",
	"Logjam",
	"Sweet 32",
	"DROWN",
	"Heartbleed",
	"EarlyCcs",
}

// bugNames lists the handshake intolerance and reflection bugs TLS-Scanner reports on
var bugNames = []string{
	"Version Intolerant",
	"Ciphersuite Intolerant",
	"Extension Intolerant",
	"CS Length Intolerant (>512 Byte)",
	"Compression Intolerant",
	"ALPN Intolerant",
	"CH Length Intolerant",
	"NamedGroup Intolerant",
	"Empty last Extension Intolerant",
	"SigHashAlgo Intolerant",
	"Big ClientHello Intolerant",
	"2nd Ciphersuite Byte Bug",
	"Ignores offered Ciphersuites",
	"Reflects offered Ciphersuites",
	"Ignores offered NamedGroups",
	"Ignores offered SigHashAlgos",
}

// AttackCatalog returns the attack catalog
func AttackCatalog() Catalog {
	return NewCatalog(attackNames...)
}

// BugCatalog returns the bug catalog
func BugCatalog() Catalog {
	return NewCatalog(bugNames...)
}
