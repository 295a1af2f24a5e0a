package audit

import (
	"testing"

	"github.com/fentz26/hourglass/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	entries []models.ActivityEntry
}

func (m *memorySink) WriteActivity(action, inputsHash, outcome, refID, details string) (*models.ActivityEntry, error) {
	e := models.ActivityEntry{Action: action, InputsHash: inputsHash, Outcome: outcome, RefID: refID, Details: details}
	m.entries = append(m.entries, e)
	return &e, nil
}

func TestRecorderHashesInputs(t *testing.T) {
	sink := &memorySink{}
	r := NewRecorder(sink)

	in := models.TaskInput{Name: "Read", Hours: 1}
	_, err := r.Record("task.create", in, OutcomeSuccess, "t1", "")
	require.NoError(t, err)
	_, err = r.Record("task.create", in, OutcomeSuccess, "t2", "")
	require.NoError(t, err)

	require.Len(t, sink.entries, 2)
	assert.Len(t, sink.entries[0].InputsHash, 64)
	assert.Equal(t, sink.entries[0].InputsHash, sink.entries[1].InputsHash, "identical inputs hash identically")
	assert.Equal(t, "t2", sink.entries[1].RefID)
}

func TestHashInputsDiffers(t *testing.T) {
	assert.NotEqual(t, HashInputs(map[string]int{"a": 1}), HashInputs(map[string]int{"a": 2}))
	assert.Equal(t, "hash_error", HashInputs(func() {}))
}
