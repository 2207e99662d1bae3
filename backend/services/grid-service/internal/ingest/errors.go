package ingest

import (
	"errors"
	"fmt"

	"gridpulse/backend/services/grid-service/internal/models"
)

// Stage is a step of one ingestion run.
type Stage string

const (
	StageFetching    Stage = "fetching"
	StageExtracting  Stage = "extracting"
	StageClassifying Stage = "classifying"
	StagePersisting  Stage = "persisting"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// ErrRunInProgress is returned when a run of the same stream has not finished yet.
var ErrRunInProgress = errors.New("ingest: run already in progress")

// IngestError reports the stage at which a run failed.
type IngestError struct {
	Stream models.Stream
	Stage  Stage
	Err    error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s: %s: %v", e.Stream, e.Stage, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }
