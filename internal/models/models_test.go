package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDSetUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"list", `["CVE-2", "CVE-1", "CVE-2"]`, []string{"CVE-1", "CVE-2"}, false},
		{"mapping", `{"CVE-9": {"cvss": 7.5}, "CVE-3": null}`, []string{"CVE-3", "CVE-9"}, false},
		{"null", `null`, []string{}, false},
		{"empty list", `[]`, []string{}, false},
		{"string", `"CVE-1"`, nil, true},
		{"number list", `[1, 2]`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s IDSet
			err := json.Unmarshal([]byte(tt.input), &s)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Sorted())
		})
	}
}

func TestIDSetMarshalSorted(t *testing.T) {
	s := IDSet{"b": {}, "a": {}}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["a", "b"]`, string(data))
}

func TestSet(t *testing.T) {
	s := NewSet("DROWN", "Heartbleed")
	s.Add("CRIME")
	assert.True(t, s.Has("CRIME"))
	assert.False(t, s.Has("Logjam"))
	assert.Equal(t, []string{"CRIME", "DROWN", "Heartbleed"}, s.Sorted())

	clone := s.Clone()
	clone.Add("Logjam")
	assert.False(t, s.Has("Logjam"))

	var empty Set
	assert.Nil(t, empty.Clone())
	assert.Equal(t, []string{}, empty.Sorted())
}

func TestHostKeyAddress(t *testing.T) {
	k := HostKey{IP: "10.0.0.1", Port: "8443", Vendor: "Acme", Product: "Box"}
	assert.Equal(t, "10.0.0.1:8443", k.Address())
}

func TestHostMapIPs(t *testing.T) {
	hosts := HostMap{"10.0.0.9": {}, "10.0.0.10": {}, "10.0.0.1": {}}
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.10", "10.0.0.9"}, hosts.IPs())
}

func TestNewIngestRun(t *testing.T) {
	run := NewIngestRun("results/tls", "results/tls_processed_data")
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, StatusPending, run.Status)
	assert.NotNil(t, run.Errors)
	assert.False(t, run.StartedAt.IsZero())
}
