package main

import (
	"bytes"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{name: "defaults", args: nil, want: options{format: "text"}},
		{name: "city", args: []string{"-city", "Paris"}, want: options{city: "Paris", format: "text"}},
		{
			name: "point",
			args: []string{"-lat", "48.85", "-lon", "2.35", "-format", "json"},
			want: options{lat: 48.85, lon: 2.35, hasPoint: true, format: "json"},
		},
		{name: "zero point is still a point", args: []string{"-lat", "0", "-lon", "0"}, want: options{hasPoint: true, format: "text"}},
		{
			name: "picked point",
			args: []string{"-lat", "48.85", "-lon", "2.35", "-pick"},
			want: options{lat: 48.85, lon: 2.35, hasPoint: true, pick: true, format: "text"},
		},
		{name: "pick without point", args: []string{"-pick"}, wantErr: true},
		{name: "lat without lon", args: []string{"-lat", "10"}, wantErr: true},
		{name: "city and point", args: []string{"-city", "Oslo", "-lat", "1", "-lon", "2"}, wantErr: true},
		{name: "unknown flag", args: []string{"-zip", "10001"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			got, err := parseFlags(tt.args, &stderr)
			if tt.wantErr {
				require.Error(t, err)
				assert.NotEmpty(t, stderr.String())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseFlags([]string{"-h"}, &stderr)
	require.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, stderr.String(), "-city")
}

func TestRun_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "")
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"-city", "Paris"}, &stdout, &stderr))
	assert.Empty(t, stdout.String())
}

func TestRun_BadFormat(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "test-key")
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"-format", "xml"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "unsupported format")
}
