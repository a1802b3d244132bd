package blocking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	proc := Proc{Name: "LSPlayer.exe", Exe: `C:\Program Files\LS\LSPlayer.exe`}
	tests := []struct {
		app  string
		want bool
	}{
		{"LSPlayer.exe", true},
		{"lsplayer", true},
		{"LSPLAYER.EXE", true},
		{`C:\Program Files\LS\LSPlayer.exe`, true},
		{`C:\Other\LSPlayer.exe`, false},
		{"LSPlay", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.app, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.app, proc))
		})
	}
}

func TestRunning(t *testing.T) {
	c := &Checker{list: func() ([]Proc, error) {
		return []Proc{{Name: "explorer.exe"}, {Name: "vlc.exe"}}, nil
	}}
	assert.Equal(t, []string{"vlc"}, c.Running([]string{"vlc", "obs64.exe"}))
	assert.Nil(t, c.Running(nil))
}

func TestRunningListFailure(t *testing.T) {
	c := &Checker{list: func() ([]Proc, error) { return nil, errors.New("denied") }}
	assert.Empty(t, c.Running([]string{"vlc"}))
}
