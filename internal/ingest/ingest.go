// Package ingest walks a directory of TLS-Scanner reports and builds the
// per-host result set.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hakim/tlsgrind/internal/logging"
	"github.com/hakim/tlsgrind/internal/models"
	"github.com/hakim/tlsgrind/internal/tlsparse"
	"github.com/sirupsen/logrus"
)

// HostSource is the read side of the recon host dataset
type HostSource interface {
	Has(ip string) bool
	Vulnerabilities(ip string) []string
}

// Config controls a single ingestion
type Config struct {
	// Decoder parses report text. Nil uses the TLS-Scanner catalogs.
	Decoder *tlsparse.Decoder

	// Scope drops reports for hosts outside the allowed CIDRs.
	Scope ScopeConfig

	// Logger receives per-file skip messages. Nil discards them.
	Logger logrus.FieldLogger
}

// Result contains the outcome of ingesting one report directory
type Result struct {
	// Hosts holds one record per ip; the first report file (in name
	// order) seen for an ip is the one kept.
	Hosts models.HostMap `json:"hosts"`

	// Deltas are the attack/bug overwrites for hosts present in the
	// dataset, in processing order. Applying them in order leaves each
	// host with the last non-empty set reported for it.
	Deltas []models.Delta `json:"deltas"`

	// Skipped lists files that contributed nothing.
	Skipped []models.SkippedFile `json:"skipped"`

	// FilesSeen counts regular directory entries examined.
	FilesSeen int `json:"files_seen"`
}

// Run ingests every report in dir, in filename order. A directory that
// cannot be listed is fatal; a single bad file is skipped and recorded.
// The context is checked before each file.
func Run(ctx context.Context, dir string, hosts HostSource, cfg Config) (*Result, error) {
	decoder := cfg.Decoder
	if decoder == nil {
		decoder = tlsparse.NewDecoder()
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}

	// os.ReadDir returns entries sorted by filename
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing report directory %s: %w", dir, err)
	}

	result := &Result{
		Hosts:   make(models.HostMap),
		Deltas:  []models.Delta{},
		Skipped: []models.SkippedFile{},
	}

	skip := func(name string, reason models.SkipReason, detail error) {
		entry := models.SkippedFile{Name: name, Reason: reason}
		if detail != nil {
			entry.Detail = detail.Error()
		}
		result.Skipped = append(result.Skipped, entry)
		log.WithFields(logrus.Fields{"file": name, "reason": reason}).Debug("skipping report")
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ingestion cancelled: %w", err)
		}
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		result.FilesSeen++

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.WithError(err).WithField("file", name).Warn("cannot read report")
			skip(name, models.SkipUnreadable, err)
			continue
		}

		finding, err := decoder.Decode(string(data))
		if errors.Is(err, tlsparse.ErrScanFailed) {
			skip(name, models.SkipScanFailed, nil)
			continue
		}

		key, err := tlsparse.DecodeFilename(name)
		if err != nil {
			skip(name, models.SkipUnusableFilename, nil)
			continue
		}

		if err := cfg.Scope.ValidateIP(key.IP); err != nil {
			skip(name, models.SkipOutOfScope, err)
			continue
		}

		vulns := []string{}
		if hosts != nil {
			vulns = hosts.Vulnerabilities(key.IP)
		}

		if _, exists := result.Hosts[key.IP]; !exists {
			result.Hosts[key.IP] = models.HostRecord{
				Vendor:          key.Vendor,
				Product:         key.Product,
				Port:            key.Port,
				Attacks:         finding.Attacks,
				Bugs:            finding.Bugs,
				Vulnerabilities: vulns,
			}
		} else {
			log.WithFields(logrus.Fields{"file": name, "ip": key.IP}).Debug("ip already recorded, keeping first report")
		}

		if hosts != nil && hosts.Has(key.IP) {
			delta := models.Delta{IP: key.IP}
			if len(finding.Attacks) > 0 {
				delta.Attacks = finding.Attacks.Clone()
			}
			if len(finding.Bugs) > 0 {
				delta.Bugs = finding.Bugs.Clone()
			}
			if delta.Attacks != nil || delta.Bugs != nil {
				result.Deltas = append(result.Deltas, delta)
			}
		}
	}

	log.WithFields(logrus.Fields{
		"dir":     dir,
		"files":   result.FilesSeen,
		"hosts":   len(result.Hosts),
		"skipped": len(result.Skipped),
		"deltas":  len(result.Deltas),
	}).Info("reports ingested")

	return result, nil
}
