package config

import (
	"bytes"
	"errors"
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Flags
		wantErr error
	}{
		{
			name: "no flags",
			args: nil,
			want: Flags{},
		},
		{
			name: "duration long flag",
			args: []string{"-duration", "2h30m"},
			want: Flags{Duration: 150 * time.Minute},
		},
		{
			name: "duration short flag in minutes",
			args: []string{"-d", "150"},
			want: Flags{Duration: 150 * time.Minute},
		},
		{
			name: "everything",
			args: []string{"-config", "/tmp/s.yaml", "-profile", "Work", "-log-level", "debug",
				"-log-file", "/tmp/m.log", "-listen", ":7071", "-headless", "-start"},
			want: Flags{ConfigPath: "/tmp/s.yaml", Profile: "Work", LogLevel: "debug",
				LogFile: "/tmp/m.log", Listen: ":7071", Headless: true, Start: true},
		},
		{
			name:    "version",
			args:    []string{"--version"},
			want:    Flags{},
			wantErr: ErrVersion,
		},
		{
			name:    "help",
			args:    []string{"-h"},
			wantErr: flag.ErrHelp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := ParseFlags("movemouse", tt.args, &out)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				if errors.Is(err, ErrVersion) {
					assert.Equal(t, tt.want, *got)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseFlagsRejectsBadInput(t *testing.T) {
	var out bytes.Buffer

	_, err := ParseFlags("movemouse", []string{"-d", "soon"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration format")
	assert.Contains(t, FormatError(err), "Valid formats")

	_, err = ParseFlags("movemouse", []string{"extra"}, &out)
	require.Error(t, err)

	_, err = ParseFlags("movemouse", []string{"-nope"}, &out)
	require.Error(t, err)
}

func TestFlagsApply(t *testing.T) {
	s, err := Load(writeSettings(t, sampleSettings))
	require.NoError(t, err)

	f := &Flags{LogLevel: "warn", LogFile: "/tmp/m.log", Listen: ":9000", Profile: "default"}
	require.NoError(t, f.Apply(s))
	assert.Equal(t, "warn", s.Log.Level)
	assert.Equal(t, "/tmp/m.log", s.Log.File)
	assert.Equal(t, ":9000", s.Server.Listen)
	assert.Equal(t, s.Profiles[0].ID, s.ActiveProfile)

	require.Error(t, (&Flags{Profile: "missing"}).Apply(s))

	// zero flags change nothing
	before := *s
	require.NoError(t, (&Flags{}).Apply(s))
	assert.Equal(t, before.Log, s.Log)
	assert.Equal(t, before.Server, s.Server)
}
