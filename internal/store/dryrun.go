package store

import (
	"context"
	"fmt"

	"github.com/amishk599/shortlist/internal/model"
)

// DryRunLinker is used in dry-run mode. It reports what LinkCandidate would
// do against the current pipeline but never writes.
type DryRunLinker struct {
	source model.PoolSource
}

func NewDryRunLinker(source model.PoolSource) *DryRunLinker {
	return &DryRunLinker{source: source}
}

// LinkCandidate returns model.ErrAlreadyLinked if the candidate is already in
// the position's pipeline and nil otherwise.
func (d *DryRunLinker) LinkCandidate(ctx context.Context, sub model.Submission) error {
	ids, err := d.source.ListPipelineCandidateIDs(ctx, sub.PositionID)
	if err != nil {
		return fmt.Errorf("reading pipeline: %w", err)
	}
	for _, id := range ids {
		if id == sub.CandidateID {
			return model.ErrAlreadyLinked
		}
	}
	return nil
}
