package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/hourglass/internal/localstore"
	"github.com/fentz26/hourglass/internal/prefs"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*App, *prefs.Store) {
	t.Helper()
	mem := localstore.NewMemory(0)
	ds, _ := newFormStore(t, mem)
	ps := prefs.New(mem, nil)
	app := New(Options{Drafts: ds, Prefs: ps, Clock: clockwork.NewFakeClockAt(formEpoch)})
	t.Cleanup(app.Close)
	return app, ps
}

func TestBackgroundChangeAppliesThemeInUpdate(t *testing.T) {
	app, ps := newTestApp(t)
	assert.Equal(t, lipgloss.Color(prefs.Presets[0].Accent), app.theme.accent)

	ocean, ok := prefs.FindPreset("ocean")
	require.True(t, ok)
	require.NoError(t, ps.SetBackground(ocean.Value))
	assert.Equal(t, lipgloss.Color(prefs.Presets[0].Accent), app.theme.accent, "the subscriber never touches the model")

	msg := app.waitForThemeChange()()
	require.Equal(t, themeChangedMsg{accent: ocean.Accent}, msg)
	_, cmd := app.Update(msg)
	assert.NotNil(t, cmd, "keeps listening for the next change")
	assert.Equal(t, lipgloss.Color(ocean.Accent), app.theme.accent)
}

func TestThemeQueueKeepsLatestChange(t *testing.T) {
	app, ps := newTestApp(t)

	forest, _ := prefs.FindPreset("forest")
	dusk, _ := prefs.FindPreset("dusk")
	require.NoError(t, ps.SetBackground(forest.Value))
	require.NoError(t, ps.SetBackground(dusk.Value))

	assert.Equal(t, themeChangedMsg{accent: dusk.Accent}, app.waitForThemeChange()())
}

func TestCycleBackgroundAdvancesPreset(t *testing.T) {
	app, ps := newTestApp(t)

	app.cycleBackground()
	bg, ok, err := ps.Background()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, prefs.Presets[1].Value, bg)
	assert.Equal(t, "Theme: "+prefs.Presets[1].Name, app.message)
}
