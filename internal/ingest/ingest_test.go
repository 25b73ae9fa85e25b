package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hakim/tlsgrind/internal/hostdata"
	"github.com/hakim/tlsgrind/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeReports(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func testDataset(t *testing.T) hostdata.Dataset {
	t.Helper()
	d, err := hostdata.Decode([]byte(`[
		{"ip": "10.0.0.1", "vulnerabilities": {"shodan_vulnerabilities": {"CVE-2014-0160": {}}, "vulners_vulnerabilities": ["CVE-2014-0160", "CVE-2016-2183"]}},
		{"ip": "10.0.0.3", "attacks": {"Logjam": true}}
	]`))
	require.NoError(t, err)
	return d
}

func TestRunEndToEnd(t *testing.T) {
	dir := writeReports(t, map[string]string{
		"10.0.0.1-443-Acme-Box1.txt": "Heartbleed : true\nDROWN : false\n",
		"10.0.0.2-443-Acme-Box2.txt": "Heartbleed : true\n",
	})

	result, err := Run(context.Background(), dir, hostdata.Dataset{}, Config{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesSeen)
	assert.Empty(t, result.Skipped)
	assert.Empty(t, result.Deltas)
	require.Len(t, result.Hosts, 2)

	box1 := result.Hosts["10.0.0.1"]
	assert.Equal(t, "Acme", box1.Vendor)
	assert.Equal(t, "Box1", box1.Product)
	assert.Equal(t, "443", box1.Port)
	assert.Equal(t, []string{"Heartbleed"}, box1.Attacks.Sorted())
	assert.Empty(t, box1.Bugs)
	assert.Equal(t, []string{}, box1.Vulnerabilities)
}

func TestRunSkipsUnusableFiles(t *testing.T) {
	dir := writeReports(t, map[string]string{
		"10.0.0.1-443-Acme-Box1.txt":   "Cannot reach the Server\nHeartbleed : true\n",
		"10.0.0.2-443-Acme-Box2.txt":   "Server does not seem to support SSL",
		"readme.txt":                   "Heartbleed : true\n",
		"10.0.0.4-443-Acme-Box4.txt":   "Logjam : true\n",
		"192.168.9.9-443-Acme-Box.txt": "Logjam : true\n",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	result, err := Run(context.Background(), dir, nil, Config{
		Scope: ScopeConfig{AllowedCIDRs: []string{"10.0.0.0/24"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.FilesSeen)
	require.Len(t, result.Hosts, 1)
	assert.Contains(t, result.Hosts, "10.0.0.4")

	reasons := map[string]models.SkipReason{}
	for _, s := range result.Skipped {
		reasons[s.Name] = s.Reason
	}
	assert.Equal(t, map[string]models.SkipReason{
		"10.0.0.1-443-Acme-Box1.txt":   models.SkipScanFailed,
		"10.0.0.2-443-Acme-Box2.txt":   models.SkipScanFailed,
		"readme.txt":                   models.SkipUnusableFilename,
		"192.168.9.9-443-Acme-Box.txt": models.SkipOutOfScope,
	}, reasons)
}

func TestRunFirstFileWinsAndDeltasOverwrite(t *testing.T) {
	dir := writeReports(t, map[string]string{
		"10.0.0.1-443-Acme-Box1.txt":  "Heartbleed : true\n",
		"10.0.0.1-8443-Acme-Box1.txt": "DROWN : true\nALPN Intolerant : true\n",
		"10.0.0.3-443-Acme-Box3.txt":  "Heartbleed : false\n",
		"10.0.0.9-443-Acme-Box9.txt":  "CRIME : true\n",
	})
	dataset := testDataset(t)

	result, err := Run(context.Background(), dir, dataset, Config{})
	require.NoError(t, err)

	// 443 sorts before 8443, so the 443 report is the one kept
	host := result.Hosts["10.0.0.1"]
	assert.Equal(t, "443", host.Port)
	assert.Equal(t, []string{"Heartbleed"}, host.Attacks.Sorted())
	assert.Equal(t, []string{"CVE-2014-0160", "CVE-2016-2183"}, host.Vulnerabilities)

	// Only dataset hosts with a non-empty finding produce deltas
	require.Len(t, result.Deltas, 2)
	assert.Equal(t, "10.0.0.1", result.Deltas[0].IP)
	assert.Nil(t, result.Deltas[0].Bugs)
	assert.Equal(t, []string{"DROWN"}, result.Deltas[1].Attacks.Sorted())

	dataset.Apply(result.Deltas)
	assert.Equal(t, []string{"DROWN"}, dataset["10.0.0.1"].Attacks.Sorted())
	assert.Equal(t, []string{"ALPN Intolerant"}, dataset["10.0.0.1"].Bugs.Sorted())
	// Empty findings leave the dataset untouched
	assert.Equal(t, []string{"Logjam"}, dataset["10.0.0.3"].Attacks.Sorted())
	assert.False(t, dataset.Has("10.0.0.9"))
}

func TestRunIsDeterministic(t *testing.T) {
	dir := writeReports(t, map[string]string{
		"10.0.0.1-443-Acme-Box1.txt": "Heartbleed : true\n",
		"10.0.0.2-443-Acme-Box2.txt": "Logjam : true\n",
	})

	first, err := Run(context.Background(), dir, testDataset(t), Config{})
	require.NoError(t, err)
	second, err := Run(context.Background(), dir, testDataset(t), Config{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunMissingDirectory(t *testing.T) {
	_, err := Run(context.Background(), filepath.Join(t.TempDir(), "absent"), nil, Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunCancelled(t *testing.T) {
	dir := writeReports(t, map[string]string{"10.0.0.1-443-Acme-Box1.txt": "Heartbleed : true\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, dir, nil, Config{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScopeConfig(t *testing.T) {
	s := ScopeConfig{AllowedCIDRs: []string{"10.0.0.0/8"}}
	assert.NoError(t, s.Validate())
	assert.NoError(t, s.ValidateIP("10.1.2.3"))
	assert.Error(t, s.ValidateIP("192.168.1.1"))
	assert.Error(t, s.ValidateIP("not-an-ip"))

	empty := ScopeConfig{}
	assert.NoError(t, empty.ValidateIP("192.168.1.1"))

	bad := ScopeConfig{AllowedCIDRs: []string{"10.0.0.0/33"}}
	assert.Error(t, bad.Validate())
}
