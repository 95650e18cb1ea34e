package plan

import (
	"testing"

	"github.com/OCAP2/geotime/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSections() []core.PlanSection {
	return []core.PlanSection{
		{ID: "perimeter", Title: "Perimeters", Checks: []core.PlanCheck{
			{ID: "sec1", Label: "Inner"}, {ID: "sec2", Label: "Middle"},
		}},
		{ID: "counter_sniper", Title: "CS", Checks: []core.PlanCheck{
			{ID: "cs1", Label: "Roofs"}, {ID: "cs2", Label: "Banners"},
		}},
	}
}

func TestToggleAndCompletion(t *testing.T) {
	p := New(testSections())
	assert.Equal(t, 0, p.Completion())

	require.True(t, p.Toggle("perimeter", "sec1"))
	assert.Equal(t, 25, p.Completion())
	require.True(t, p.Toggle("perimeter", "sec1"))
	assert.Equal(t, 0, p.Completion())

	assert.False(t, p.Toggle("perimeter", "nope"))
	assert.False(t, p.Toggle("nope", "sec1"))
}

func TestCompletion_Rounds(t *testing.T) {
	p := New([]core.PlanSection{{ID: "s", Checks: []core.PlanCheck{{ID: "a"}, {ID: "b"}, {ID: "c"}}}})
	p.SetChecked("s", "a", true)
	assert.Equal(t, 33, p.Completion())
	p.SetChecked("s", "b", true)
	assert.Equal(t, 67, p.Completion())
}

func TestCompletion_EmptyPlan(t *testing.T) {
	assert.Equal(t, 0, New(nil).Completion())
}

func TestSetNotes(t *testing.T) {
	p := New(testSections())
	require.True(t, p.SetNotes("counter_sniper", "cs2", "two trucks on Rua X"))
	assert.Equal(t, "two trucks on Rua X", p.Sections()[1].Checks[1].Notes)
}

func TestSections_IsCopy(t *testing.T) {
	src := testSections()
	p := New(src)
	src[0].Checks[0].Checked = true

	got := p.Sections()
	assert.False(t, got[0].Checks[0].Checked)
	got[0].Checks[0].Checked = true
	assert.False(t, p.Sections()[0].Checks[0].Checked)
}

func TestApplyPreset(t *testing.T) {
	p := New(testSections())
	p.SetNotes("perimeter", "sec2", "keep me")

	require.NoError(t, p.ApplyPreset(PresetMed))
	s := p.Sections()
	assert.True(t, s[0].Checks[0].Checked)
	assert.True(t, s[0].Checks[1].Checked)
	assert.True(t, s[1].Checks[0].Checked)
	assert.False(t, s[1].Checks[1].Checked)
	assert.Equal(t, "keep me", s[0].Checks[1].Notes)
	assert.Equal(t, "Level 2 protocol applied.", s[0].Checks[0].Notes)

	require.NoError(t, p.ApplyPreset("min"))
	s = p.Sections()
	assert.True(t, s[0].Checks[0].Checked)
	assert.False(t, s[0].Checks[1].Checked)

	require.NoError(t, p.ApplyPreset(PresetMax))
	assert.Equal(t, 100, p.Completion())

	require.NoError(t, p.ApplyPreset(PresetClear))
	assert.Equal(t, 0, p.Completion())
	assert.Empty(t, p.Sections()[0].Checks[1].Notes)
}

func TestApplyPreset_Unknown(t *testing.T) {
	p := New(testSections())
	assert.ErrorIs(t, p.ApplyPreset("EXTREME"), ErrUnknownPreset)
}
