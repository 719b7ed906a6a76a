package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/ledstrip/internal/color"
	"github.com/coreman2200/ledstrip/internal/scene"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledstrip.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestLastFrameEmpty(t *testing.T) {
	s, _ := openTemp(t)
	frame, v, err := s.LastFrame("main")
	require.NoError(t, err)
	assert.Nil(t, frame)
	assert.Equal(t, int64(0), v)

	sc, err := s.LastScene("main", scene.Decoder{})
	require.NoError(t, err)
	assert.Nil(t, sc)
}

func TestSaveSceneUpserts(t *testing.T) {
	s, _ := openTemp(t)
	a := scene.Static{Color: color.NewRGB(1, 2, 3)}
	b := scene.Swap{Steps: []scene.Timed{{Color: color.NewHV(10, 255), N: 500}, {Color: color.NewHV(99, 255), N: 500}}}

	require.NoError(t, s.SaveScene("main", a))
	require.NoError(t, s.SaveScene("main", b))
	require.NoError(t, s.SaveScene("porch", scene.Off{}))

	_, v, err := s.LastFrame("main")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	got, err := s.LastScene("main", scene.Decoder{})
	require.NoError(t, err)
	assert.Equal(t, b, got)

	got, err = s.LastScene("porch", scene.Decoder{})
	require.NoError(t, err)
	assert.Equal(t, scene.Off{}, got)
}

func TestSurvivesReopen(t *testing.T) {
	s, path := openTemp(t)
	require.NoError(t, s.SaveFrame("main", []byte{7}))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	got, err := s2.LastScene("main", scene.Decoder{})
	require.NoError(t, err)
	assert.Equal(t, scene.StaticRandom{}, got)
}

func TestLedger(t *testing.T) {
	s, _ := openTemp(t)
	require.NoError(t, s.Record("scene", "conn-1", []byte{1, 2}))
	require.NoError(t, s.Record("action", "conn-2", []byte{3}))
	require.NoError(t, s.Record("action", "", nil))

	ev, err := s.Events(2)
	require.NoError(t, err)
	require.Len(t, ev, 2)
	assert.Equal(t, "action", ev[0].Type)
	assert.Empty(t, ev[0].Source)
	assert.Equal(t, "conn-2", ev[1].Source)
	assert.Equal(t, []byte{3}, ev[1].Payload)
	assert.Greater(t, ev[0].ID, ev[1].ID)
	assert.False(t, ev[1].At.IsZero())
}

func TestLastSceneIgnoresLegacyFrames(t *testing.T) {
	s, _ := openTemp(t)
	want := scene.Static{Color: color.NewRGB(10, 20, 30)}
	require.NoError(t, s.SaveScene("main", want))

	got, err := s.LastScene("main", scene.Decoder{LegacyFrames: true})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
