package report

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hakim/tlsgrind/internal/aggregate"
	"github.com/hakim/tlsgrind/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func testHosts() models.HostMap {
	return models.HostMap{
		"10.0.0.2": {
			Vendor: "Acme", Product: "Zeta", Port: "443",
			Attacks:         models.NewSet("Logjam", "DROWN"),
			Bugs:            models.NewSet(),
			Vulnerabilities: []string{"CVE-2015-4000"},
		},
		"10.0.0.1": {
			Vendor: "Acme", Product: "Alpha", Port: "8443",
			Attacks:         models.NewSet(),
			Bugs:            models.NewSet("ALPN Intolerant"),
			Vulnerabilities: []string{},
		},
	}
}

func TestSaveJSON(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "out"))

	require.NoError(t, w.SaveJSON(aggregate.FrequencyTable{{Name: "Heartbleed", Quantity: 2}}, "attacks.json"))

	data, err := os.ReadFile(w.Path("attacks.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"Heartbleed\": 2\n}", string(data))
}

func TestSaveJSONEncodeFailure(t *testing.T) {
	w := NewWriter(t.TempDir())

	err := w.SaveJSON(math.Inf(1), "bad.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot encode bad.json")

	_, statErr := os.Stat(w.Path("bad.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSaveFlatCSV(t *testing.T) {
	w := NewWriter(t.TempDir())
	require.NoError(t, w.SaveFlatCSV(testHosts(), "results.csv"))

	rows := readCSV(t, w.Path("results.csv"))
	assert.Equal(t, [][]string{
		{"ip", "vendor", "product", "port", "attacks", "bugs", "vulnerabilities"},
		{"10.0.0.1", "Acme", "Alpha", "8443", "[]", "['ALPN Intolerant']", "[]"},
		{"10.0.0.2", "Acme", "Zeta", "443", "['DROWN', 'Logjam']", "[]", "['CVE-2015-4000']"},
	}, rows)
}

func TestSaveFrequencyCSV(t *testing.T) {
	w := NewWriter(t.TempDir())
	table := aggregate.FrequencyTable{{Name: "Logjam", Quantity: 3}, {Name: "DROWN", Quantity: 1}}
	require.NoError(t, w.SaveFrequencyCSV(table, "attacks.csv"))

	rows := readCSV(t, w.Path("attacks.csv"))
	assert.Equal(t, [][]string{
		{"name", "quantity"},
		{"Logjam", "3"},
		{"DROWN", "1"},
	}, rows)
}

func TestSaveGroupedCSV(t *testing.T) {
	grouped := aggregate.GroupedReport{
		{
			Attack: "Heartbleed",
			Vendors: []aggregate.VendorGroup{
				{
					Vendor: "Acme",
					Products: []aggregate.ProductGroup{
						{Product: "Box2", IPs: []string{"10.0.0.2:443", "10.0.0.3:443"}, Quantity: 2},
						{Product: "Box1", IPs: []string{"10.0.0.1:443"}, Quantity: 1},
					},
				},
			},
		},
	}

	w := NewWriter(t.TempDir())
	require.NoError(t, w.SaveGroupedCSV(grouped, "groupped.csv"))

	rows := readCSV(t, w.Path("groupped.csv"))
	assert.Equal(t, [][]string{
		{"attack", "vendor", "product", "versions", "ips", "quantity"},
		{"Heartbleed", "Acme (total)", "", "", "['10.0.0.2:443', '10.0.0.3:443', '10.0.0.1:443']", "3"},
		{"Heartbleed", "Acme", "Box2", "", "['10.0.0.2:443', '10.0.0.3:443']", "2"},
		{"Heartbleed", "Acme", "Box1", "", "['10.0.0.1:443']", "1"},
	}, rows)
}

func TestSaveEmptyCSVHasHeader(t *testing.T) {
	w := NewWriter(t.TempDir())
	require.NoError(t, w.SaveGroupedCSV(nil, "groupped.csv"))

	rows := readCSV(t, w.Path("groupped.csv"))
	assert.Len(t, rows, 1)
}

func TestWriteSummaryReport(t *testing.T) {
	hosts := testHosts()
	attacks := aggregate.Count(hosts, models.FieldAttacks)

	s := &Summary{
		ReportDir:       "results/tls",
		Hosts:           hosts,
		Attacks:         attacks,
		Bugs:            aggregate.Count(hosts, models.FieldBugs),
		Vulnerabilities: aggregate.Count(hosts, models.FieldVulnerabilities),
		Grouped:         aggregate.Group(hosts, attacks),
		Skipped:         []models.SkippedFile{{Name: "broken.txt", Reason: models.SkipUnusableFilename}},
		TopLimit:        1,
	}

	path := filepath.Join(t.TempDir(), "summary.md")
	require.NoError(t, WriteSummaryReport(s, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	md := string(data)

	assert.True(t, strings.HasPrefix(md, "# TLS-Scanner Results"))
	assert.Contains(t, md, "**Hosts:** 2 | **Skipped files:** 1")
	assert.Contains(t, md, "| DROWN | 1 |")
	assert.NotContains(t, md, "| Logjam | 1 |", "top limit should cut the table")
	assert.Contains(t, md, "### Logjam (1)")
	assert.Contains(t, md, "| Acme | Zeta | 10.0.0.2:443 | 1 |")
	assert.Contains(t, md, "| broken.txt | unusable_filename |")
}
