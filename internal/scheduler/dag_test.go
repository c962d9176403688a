package scheduler

import (
	"strings"
	"testing"
)

func newLinearDAG(t *testing.T) *DAG {
	t.Helper()
	dag := NewDAG("item-1")
	must(t, dag.AddTask(&Task{Kind: Skeleton}))
	must(t, dag.AddTask(&Task{Kind: WorkingTreeDiff, DependsOn: []Kind{Skeleton}}))
	must(t, dag.AddTask(&Task{Kind: AheadBehind, DependsOn: []Kind{Skeleton}}))
	must(t, dag.AddTask(&Task{Kind: Integration, DependsOn: []Kind{WorkingTreeDiff, AheadBehind}}))
	return dag
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDAG_AddTask_DuplicateKindRejected(t *testing.T) {
	dag := NewDAG("item-1")
	must(t, dag.AddTask(&Task{Kind: Skeleton}))
	if err := dag.AddTask(&Task{Kind: Skeleton}); err == nil {
		t.Fatal("expected an error adding a duplicate task kind")
	}
}

func TestDAG_Validate_LinearChain(t *testing.T) {
	dag := newLinearDAG(t)
	order, err := dag.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(order) != 4 {
		t.Fatalf("order = %v, want 4 entries", order)
	}

	pos := make(map[Kind]int, len(order))
	for i, k := range order {
		pos[k] = i
	}
	if pos[Skeleton] > pos[WorkingTreeDiff] || pos[Skeleton] > pos[AheadBehind] {
		t.Error("Skeleton must precede its dependents in topological order")
	}
	if pos[WorkingTreeDiff] > pos[Integration] || pos[AheadBehind] > pos[Integration] {
		t.Error("Integration must come after both its dependencies")
	}
}

func TestDAG_Validate_MissingDependency(t *testing.T) {
	dag := NewDAG("item-1")
	must(t, dag.AddTask(&Task{Kind: Integration, DependsOn: []Kind{WorkingTreeDiff}}))

	_, err := dag.Validate()
	if err == nil || !strings.Contains(err.Error(), "non-existent") {
		t.Fatalf("Validate err = %v, want mention of non-existent task", err)
	}
}

func TestDAG_Validate_Cycle(t *testing.T) {
	dag := NewDAG("item-1")
	must(t, dag.AddTask(&Task{Kind: WorkingTreeDiff, DependsOn: []Kind{AheadBehind}}))
	must(t, dag.AddTask(&Task{Kind: AheadBehind, DependsOn: []Kind{WorkingTreeDiff}}))

	_, err := dag.Validate()
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("Validate err = %v, want mention of cycle", err)
	}
}

func TestDAG_Eligible_RootsFirst(t *testing.T) {
	dag := newLinearDAG(t)
	eligible := dag.Eligible()
	if len(eligible) != 1 || eligible[0].Kind != Skeleton {
		t.Fatalf("Eligible = %v, want only Skeleton", eligible)
	}
}

func TestDAG_Eligible_AfterCompletion(t *testing.T) {
	dag := newLinearDAG(t)
	must(t, dag.MarkCompleted(Skeleton, "skeleton-result"))

	eligible := dag.Eligible()
	kinds := map[Kind]bool{}
	for _, task := range eligible {
		kinds[task.Kind] = true
	}
	if !kinds[WorkingTreeDiff] || !kinds[AheadBehind] {
		t.Fatalf("Eligible after Skeleton completes = %v, want WorkingTreeDiff and AheadBehind", eligible)
	}
	if kinds[Integration] {
		t.Fatal("Integration should not be eligible before its own dependencies complete")
	}
}

func TestDAG_MarkFailed_FailHardSkipsDependents(t *testing.T) {
	dag := NewDAG("item-1")
	must(t, dag.AddTask(&Task{Kind: Skeleton, FailureMode: FailHard}))
	must(t, dag.AddTask(&Task{Kind: WorkingTreeDiff, DependsOn: []Kind{Skeleton}}))

	must(t, dag.MarkFailed(Skeleton, errTest))

	task, ok := dag.Get(WorkingTreeDiff)
	if !ok {
		t.Fatal("WorkingTreeDiff task not found")
	}
	if task.Status != Skipped {
		t.Errorf("WorkingTreeDiff status = %v, want Skipped", task.Status)
	}
}

func TestDAG_MarkFailed_FailSoftLetsDependentsProceed(t *testing.T) {
	dag := NewDAG("item-1")
	must(t, dag.AddTask(&Task{Kind: CiStatus, FailureMode: FailSoft}))
	must(t, dag.AddTask(&Task{Kind: StatusSymbols, DependsOn: []Kind{CiStatus}}))

	must(t, dag.MarkFailed(CiStatus, errTest))

	eligible := dag.Eligible()
	if len(eligible) != 1 || eligible[0].Kind != StatusSymbols {
		t.Fatalf("Eligible = %v, want StatusSymbols eligible despite FailSoft failure", eligible)
	}
}

func TestDAG_Disable_SkipsTransitiveDependents(t *testing.T) {
	dag := NewDAG("item-1")
	must(t, dag.AddTask(&Task{Kind: CiStatus, Optional: true}))
	must(t, dag.AddTask(&Task{Kind: Integration, DependsOn: []Kind{CiStatus}}))
	must(t, dag.AddTask(&Task{Kind: StatusSymbols, DependsOn: []Kind{Integration}}))

	dag.Disable(CiStatus)

	for _, kind := range []Kind{CiStatus, Integration, StatusSymbols} {
		task, ok := dag.Get(kind)
		if !ok || task.Status != Skipped {
			t.Errorf("%v status = %v, want Skipped", kind, task.Status)
		}
	}
}

func TestDAG_Done(t *testing.T) {
	dag := NewDAG("item-1")
	must(t, dag.AddTask(&Task{Kind: Skeleton}))

	if dag.Done() {
		t.Fatal("Done should be false while Skeleton is Pending")
	}
	must(t, dag.MarkRunning(Skeleton))
	if dag.Done() {
		t.Fatal("Done should be false while Skeleton is Running")
	}
	must(t, dag.MarkCompleted(Skeleton, nil))
	if !dag.Done() {
		t.Fatal("Done should be true once every task has settled")
	}
}

var errTest = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
