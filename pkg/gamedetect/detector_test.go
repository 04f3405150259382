package gamedetect

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/unisync/pkg/types"
)

// fakeLister returns a canned process table, or an error when failing
// is set.
type fakeLister struct {
	procs   []processInfo
	failing bool
}

func (f *fakeLister) list() ([]processInfo, error) {
	if f.failing {
		return nil, fmt.Errorf("access denied")
	}
	return f.procs, nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		proc     processInfo
		wantGame types.Game
		wantOK   bool
	}{
		{
			name:     "stable on windows",
			proc:     processInfo{name: "osu!.exe", exe: `c:\users\peppy\appdata\local\osu!\osu!.exe`},
			wantGame: types.GameStable,
			wantOK:   true,
		},
		{
			name:     "lazer by path marker",
			proc:     processInfo{name: "osu!.exe", exe: `c:\users\peppy\appdata\local\osulazer\app-2024.1.1\osu!.exe`},
			wantGame: types.GameLazer,
			wantOK:   true,
		},
		{
			name:     "lazer appimage",
			proc:     processInfo{name: "osu", exe: "/tmp/.mount_osuXYZ/osu!.AppImage"},
			wantGame: types.GameLazer,
			wantOK:   true,
		},
		{
			name:     "lazer under local share",
			proc:     processInfo{name: "osu!", exe: "/home/peppy/.local/share/osu/osu!"},
			wantGame: types.GameLazer,
			wantOK:   true,
		},
		{
			name:   "bare dotnet host",
			proc:   processInfo{name: "dotnet", exe: "/usr/lib/dotnet/dotnet"},
			wantOK: false,
		},
		{
			name:   "unrelated process",
			proc:   processInfo{name: "firefox", exe: "/usr/bin/firefox"},
			wantOK: false,
		},
		{
			name:   "unrelated dotnet service",
			proc:   processInfo{name: "dotnet", exe: "/srv/myservice/dotnet"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			game, ok := classify(tt.proc)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantGame, game)
			}
		})
	}
}

func TestClassifyDotnetHostedLazer(t *testing.T) {
	game, ok := classify(processInfo{name: "dotnet", exe: "/home/peppy/osu/osu!.dll"})
	require.True(t, ok)
	assert.Equal(t, types.GameLazer, game)
}

func TestScanUpdatesRunningState(t *testing.T) {
	lister := &fakeLister{procs: []processInfo{
		{pid: 100, name: "osu!.exe", exe: `c:\games\osu!\osu!.exe`},
	}}
	d := newWithLister(lister, time.Minute)

	d.scan()
	assert.True(t, d.IsRunning(types.GameStable))
	assert.False(t, d.IsRunning(types.GameLazer))

	game, any := d.AnyRunning()
	assert.True(t, any)
	assert.Equal(t, types.GameStable, game)
}

func TestScanEmitsTransitions(t *testing.T) {
	lister := &fakeLister{}
	d := newWithLister(lister, time.Minute)

	// Nothing running: no events
	d.scan()
	select {
	case ev := <-d.Events():
		t.Fatalf("unexpected event %+v", ev)
	default:
	}

	// Launch
	lister.procs = []processInfo{{pid: 100, name: "osu!.exe", exe: `c:\games\osu!\osu!.exe`}}
	d.scan()
	ev := <-d.Events()
	assert.Equal(t, types.GameStable, ev.Game)
	assert.True(t, ev.Running)

	// Still running: no duplicate event
	d.scan()
	select {
	case ev := <-d.Events():
		t.Fatalf("unexpected event %+v", ev)
	default:
	}

	// Close
	lister.procs = nil
	d.scan()
	ev = <-d.Events()
	assert.Equal(t, types.GameStable, ev.Game)
	assert.False(t, ev.Running)
}

func TestScanFailureKeepsLastKnown(t *testing.T) {
	lister := &fakeLister{procs: []processInfo{
		{pid: 100, name: "osu!.exe", exe: `c:\games\osu!\osu!.exe`},
	}}
	d := newWithLister(lister, time.Minute)

	d.scan()
	require.True(t, d.IsRunning(types.GameStable))

	lister.failing = true
	d.scan()

	// Enumeration failed; the game is still considered running
	assert.True(t, d.IsRunning(types.GameStable))
}

func TestStartStop(t *testing.T) {
	d := newWithLister(&fakeLister{}, 10*time.Millisecond)
	d.Start()
	d.Stop()

	// Stop is idempotent
	d.Stop()
}

func TestStartIsIdempotent(t *testing.T) {
	d := newWithLister(&fakeLister{}, 10*time.Millisecond)

	// The session and the serve loop may both start the detector. A
	// second Start must not spawn a second poll loop, and Stop must
	// return without panicking.
	d.Start()
	d.Start()
	d.Stop()
}
