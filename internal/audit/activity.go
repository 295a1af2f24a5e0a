// Package audit records an activity trail for every mutation made through
// the hourglass service.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/hourglass/internal/models"
)

// Outcomes written to the trail.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Sink persists activity records. *store.Store satisfies it.
type Sink interface {
	WriteActivity(action, inputsHash, outcome, refID, details string) (*models.ActivityEntry, error)
}

// Recorder writes activity records for audit trails.
type Recorder struct {
	sink Sink
}

// NewRecorder creates a new Recorder.
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

// Record writes an activity entry for a state-mutating action.
func (r *Recorder) Record(action string, inputs interface{}, outcome, refID, details string) (*models.ActivityEntry, error) {
	return r.sink.WriteActivity(action, HashInputs(inputs), outcome, refID, details)
}

// HashInputs returns the SHA256 of the JSON encoding of inputs, so identical
// requests are recognizable in the trail without storing their content.
func HashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
