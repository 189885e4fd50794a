package core

import (
	"fmt"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"
)

// SelectBest picks the valid candidate with the highest silhouette score.
// Ties go to the smaller K. Davies-Bouldin never takes part.
func SelectBest(sweep *schema.SweepResult) (*schema.BestModel, error) {
	var best *schema.CandidateResult
	for i := range sweep.Candidates {
		c := &sweep.Candidates[i]
		if !c.Valid {
			continue
		}
		if best == nil || c.Silhouette > best.Silhouette || (c.Silhouette == best.Silhouette && c.K < best.K) {
			best = c
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: all %d candidates were excluded", contract.ErrNoViableModel, len(sweep.Candidates))
	}
	return &schema.BestModel{Candidate: *best, Labels: sweep.Labels[best.K]}, nil
}
