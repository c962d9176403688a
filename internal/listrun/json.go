package listrun

import (
	"encoding/json"
	"io"

	"github.com/worktrunk/wt/internal/listmodel"
)

// jsonItem is the `--format=json` element shape: the
// schema is user-facing, so field names and shapes must stay stable
// across refactors of the internal Item struct.
type jsonItem struct {
	Path      string  `json:"path"`
	Name      string  `json:"name"`
	Head      string  `json:"head"`
	Branch    string  `json:"branch,omitempty"`
	IsDefault bool    `json:"is_default"`
	IsCurrent bool    `json:"is_current"`
	Locked    *string `json:"locked,omitempty"`
	Prunable  *string `json:"prunable,omitempty"`

	CommitDetails   *jsonCommitDetails `json:"commit_details,omitempty"`
	Counts          *jsonCounts        `json:"counts,omitempty"`
	WorkingTreeDiff *jsonLineDiff      `json:"working_tree_diff,omitempty"`
	BranchDiff      *jsonDiffStats     `json:"branch_diff,omitempty"`
	Upstream        *jsonUpstream      `json:"upstream,omitempty"`
	CIStatus        *jsonCIStatus      `json:"ci_status,omitempty"`
	PRStatus        *jsonPRStatus      `json:"pr_status,omitempty"`

	IntegrationReason string `json:"integration_reason"`
	UserMarker        string `json:"user_marker,omitempty"`
	StatusSymbols     string `json:"status_symbols"`
	Timestamp         int64  `json:"timestamp,omitempty"`
}

type jsonCommitDetails struct {
	Timestamp int64  `json:"timestamp"`
	Subject   string `json:"subject"`
}

type jsonCounts struct {
	Ahead  int `json:"ahead"`
	Behind int `json:"behind"`
}

type jsonLineDiff struct {
	AddedLines   int `json:"added_lines"`
	DeletedLines int `json:"deleted_lines"`
}

type jsonDiffStats struct {
	FilesChanged int `json:"files_changed"`
	Added        int `json:"added"`
	Deleted      int `json:"deleted"`
}

type jsonUpstream struct {
	Ref    string `json:"ref"`
	Ahead  int    `json:"ahead"`
	Behind int    `json:"behind"`
}

type jsonCIStatus struct {
	State string `json:"state"`
	URL   string `json:"url,omitempty"`
}

type jsonPRStatus struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	URL    string `json:"url"`
	Draft  bool   `json:"draft"`
}

func toJSONItem(it listmodel.ItemSnapshot) jsonItem {
	out := jsonItem{
		Path:              it.Path,
		Name:              it.Name,
		Head:              it.Head,
		Branch:            it.Branch,
		IsDefault:         it.IsDefault,
		IsCurrent:         it.IsCurrent,
		Locked:            it.Locked,
		Prunable:          it.Prunable,
		IntegrationReason: it.IntegrationReason.String(),
		UserMarker:        it.UserMarker,
		StatusSymbols:     it.Display.StatusSymbols,
	}

	if it.CommitDetails != nil {
		out.CommitDetails = &jsonCommitDetails{Timestamp: it.CommitDetails.Timestamp, Subject: it.CommitDetails.Subject}
		out.Timestamp = it.CommitDetails.Timestamp
	}
	if it.HasCounts {
		out.Counts = &jsonCounts{Ahead: it.Ahead, Behind: it.Behind}
	}
	if it.WorkingTreeDiff != nil {
		out.WorkingTreeDiff = &jsonLineDiff{AddedLines: it.WorkingTreeDiff.Added, DeletedLines: it.WorkingTreeDiff.Deleted}
	}
	if it.BranchDiff != nil {
		out.BranchDiff = &jsonDiffStats{FilesChanged: it.BranchDiff.FilesChanged, Added: it.BranchDiff.Added, Deleted: it.BranchDiff.Deleted}
	}
	if it.Upstream != nil && it.Upstream.HasUpstream() {
		out.Upstream = &jsonUpstream{Ref: it.Upstream.Ref, Ahead: it.Upstream.Ahead, Behind: it.Upstream.Behind}
	}
	if it.CIStatus != nil {
		out.CIStatus = &jsonCIStatus{State: string(it.CIStatus.State), URL: it.CIStatus.URL}
	}
	if it.PRStatus != nil {
		out.PRStatus = &jsonPRStatus{
			Number: it.PRStatus.Number,
			Title:  it.PRStatus.Title,
			State:  string(it.PRStatus.State),
			URL:    it.PRStatus.URL,
			Draft:  it.PRStatus.Draft,
		}
	}

	return out
}

// writeJSON encodes items as a single JSON array to w.
func writeJSON(w io.Writer, items []listmodel.ItemSnapshot) error {
	out := make([]jsonItem, len(items))
	for i, it := range items {
		out[i] = toJSONItem(it)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
