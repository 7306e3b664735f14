package audio

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sinkInputs = `Sink Input #41
	Driver: protocol-native.c
	Volume: front-left: 65536 / 100% / 0.00 dB,   front-right: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "Firefox"
Sink Input #42
	Volume: front-left: 32768 /  50% / -18.06 dB,   front-right: 32768 /  50% / -18.06 dB
	Properties:
		application.name = "elisa"
Sink Input #bogus
	Volume: front-left: 1 / 10%
`

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(sinkInputs)
	require.Len(t, got, 2)
	assert.Equal(t, streamInfo{ID: 41, Volume: 100, AppName: "Firefox"}, got[0])
	assert.Equal(t, streamInfo{ID: 42, Volume: 50, AppName: "elisa"}, got[1])

	assert.Nil(t, parseSinkInputs(""))
}

type fakePactl struct {
	mu   sync.Mutex
	list string
	sets []string
}

func (f *fakePactl) run(_ context.Context, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if args[0] == "list" {
		return []byte(f.list), nil
	}
	f.sets = append(f.sets, strings.Join(args[1:], " "))
	return nil, nil
}

func TestDucker_DuckAndRestore(t *testing.T) {
	fake := &fakePactl{list: sinkInputs}
	d := NewDucker([]string{"elisa"}, 0.3, 20, 0)
	d.pactl = fake.run

	require.NoError(t, d.Duck(context.Background()))
	assert.Equal(t, []string{"41 30%"}, fake.sets)

	// second duck is a no-op
	require.NoError(t, d.Duck(context.Background()))
	assert.Len(t, fake.sets, 1)

	fake.list = strings.Replace(sinkInputs, "100%", "30%", 1)
	require.NoError(t, d.Restore(context.Background()))
	assert.Equal(t, []string{"41 30%", "41 100%"}, fake.sets)
}

func TestDucker_MinVolumeFloor(t *testing.T) {
	fake := &fakePactl{list: sinkInputs}
	d := NewDucker(nil, 0.01, 40, 0)
	d.pactl = fake.run

	require.NoError(t, d.Duck(context.Background()))
	assert.ElementsMatch(t, []string{"41 40%", "42 40%"}, fake.sets)
}

func TestDucker_RestoreWithoutDuck(t *testing.T) {
	fake := &fakePactl{list: sinkInputs}
	d := NewDucker(nil, 0.5, 0, 0)
	d.pactl = fake.run

	require.NoError(t, d.Restore(context.Background()))
	assert.Empty(t, fake.sets)
}
