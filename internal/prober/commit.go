package prober

import (
	"context"

	"github.com/worktrunk/wt/internal/listmodel"
	"github.com/worktrunk/wt/internal/repo"
)

// probeCommitDetails records HEAD's commit timestamp and subject line,
// the inputs listmodel.Finalize needs for age bucketing and the message
// column.
func probeCommitDetails(ctx context.Context, r repo.Repository, it *listmodel.Item, target string) (any, error) {
	ts, err := r.CommitTimestamp(ctx, it.Head)
	if err != nil {
		return nil, err
	}
	subjects, err := r.RecentCommitSubjects(ctx, it.Head, 1)
	if err != nil {
		return nil, err
	}
	var subject string
	if len(subjects) > 0 {
		subject = subjects[0]
	}
	d := listmodel.CommitDetails{Timestamp: ts, Subject: subject}
	it.SetCommitDetails(d)
	return d, nil
}
