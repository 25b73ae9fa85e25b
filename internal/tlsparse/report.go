package tlsparse

import (
	"errors"
	"strings"

	"github.com/hakim/tlsgrind/internal/models"
)

// ErrScanFailed is returned for reports in which TLS-Scanner could not
// assess the server at all. Such reports must be skipped entirely.
var ErrScanFailed = errors.New("tls scan failed")

// failureMarkers are the phrases TLS-Scanner prints instead of results
var failureMarkers = []string{
	"Cannot reach the Server",
	"Server does not seem to support SSL",
}

// Finding holds the attacks and bugs confirmed in one report
type Finding struct {
	Attacks models.Set
	Bugs    models.Set
}

// Decoder turns report text into findings using its two catalogs
type Decoder struct {
	Attacks Catalog
	Bugs    Catalog
}

// NewDecoder returns a decoder loaded with the TLS-Scanner catalogs
func NewDecoder() *Decoder {
	return &Decoder{
		Attacks: AttackCatalog(),
		Bugs:    BugCatalog(),
	}
}

// Decode parses a report. It fails only with ErrScanFailed; content that
// matches nothing yields empty sets.
func (d *Decoder) Decode(text string) (Finding, error) {
	for _, marker := range failureMarkers {
		if strings.Contains(text, marker) {
			return Finding{}, ErrScanFailed
		}
	}

	return Finding{
		Attacks: d.Attacks.Match(text),
		Bugs:    d.Bugs.Match(text),
	}, nil
}

// DecodeReport parses a report with the default catalogs
func DecodeReport(text string) (Finding, error) {
	return NewDecoder().Decode(text)
}
