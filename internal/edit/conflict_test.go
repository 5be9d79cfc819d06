package edit

import (
	"reflect"
	"testing"
)

func TestDetectConflicts(t *testing.T) {
	tests := []struct {
		name    string
		edits   []SingleEditParams
		reasons []ConflictReason
	}{
		{
			name: "no conflicts across different files",
			edits: []SingleEditParams{
				{FilePath: "/a.go", OldString: "foo", NewString: "bar"},
				{FilePath: "/b.go", OldString: "foo", NewString: "baz"},
			},
		},
		{
			name: "disjoint edits on the same file",
			edits: []SingleEditParams{
				{FilePath: "/a.go", OldString: "alpha", NewString: "x"},
				{FilePath: "/a.go", OldString: "beta", NewString: "y"},
			},
		},
		{
			name: "identical old strings overlap",
			edits: []SingleEditParams{
				{FilePath: "/a.go", OldString: "foo", NewString: "x"},
				{FilePath: "/a.go", OldString: "foo", NewString: "y"},
			},
			reasons: []ConflictReason{ReasonOverlappingEdits},
		},
		{
			name: "substring in either direction overlaps",
			edits: []SingleEditParams{
				{FilePath: "/a.go", OldString: "func main", NewString: "x"},
				{FilePath: "/a.go", OldString: "main", NewString: "y"},
			},
			reasons: []ConflictReason{ReasonOverlappingEdits},
		},
		{
			name: "multiple creates for the same file",
			edits: []SingleEditParams{
				{FilePath: "/new.go", OldString: "", NewString: "a"},
				{FilePath: "/new.go", OldString: "", NewString: "b"},
			},
			reasons: []ConflictReason{ReasonMultipleCreates},
		},
		{
			name: "create mixed with content edit",
			edits: []SingleEditParams{
				{FilePath: "/new.go", OldString: "", NewString: "a"},
				{FilePath: "/new.go", OldString: "foo", NewString: "bar"},
			},
			reasons: []ConflictReason{ReasonCreateMixedWithEdit},
		},
		{
			name: "create does not trigger overlap against edits",
			edits: []SingleEditParams{
				{FilePath: "/new.go", OldString: "", NewString: "a"},
				{FilePath: "/new.go", OldString: "foo", NewString: "bar"},
				{FilePath: "/new.go", OldString: "baz", NewString: "qux"},
			},
			reasons: []ConflictReason{ReasonCreateMixedWithEdit},
		},
		{
			name: "single create is fine",
			edits: []SingleEditParams{
				{FilePath: "/new.go", OldString: "", NewString: "content"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetectConflicts(tt.edits)
			if result.HasConflicts != (len(tt.reasons) > 0) {
				t.Fatalf("HasConflicts = %v, want %v (conflicts: %+v)",
					result.HasConflicts, len(tt.reasons) > 0, result.Conflicts)
			}
			var got []ConflictReason
			for _, c := range result.Conflicts {
				got = append(got, c.Reason)
			}
			if !reflect.DeepEqual(got, tt.reasons) {
				t.Fatalf("reasons = %v, want %v", got, tt.reasons)
			}
		})
	}
}

func TestDetectConflictsIndices(t *testing.T) {
	edits := []SingleEditParams{
		{FilePath: "/b.go", OldString: "unrelated", NewString: "x"},
		{FilePath: "/a.go", OldString: "foo", NewString: "x"},
		{FilePath: "/a.go", OldString: "foobar", NewString: "y"},
	}
	result := DetectConflicts(edits)
	if len(result.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(result.Conflicts))
	}
	c := result.Conflicts[0]
	if c.FilePath != "/a.go" {
		t.Errorf("FilePath = %q, want /a.go", c.FilePath)
	}
	if !reflect.DeepEqual(c.EditIndices, []int{1, 2}) {
		t.Errorf("EditIndices = %v, want [1 2]", c.EditIndices)
	}
}

func TestDetectConflictsAccumulatesReasons(t *testing.T) {
	edits := []SingleEditParams{
		{FilePath: "/f.go", OldString: "", NewString: "a"},
		{FilePath: "/f.go", OldString: "", NewString: "b"},
		{FilePath: "/f.go", OldString: "foo", NewString: "bar"},
	}
	result := DetectConflicts(edits)
	reasons := map[ConflictReason]bool{}
	for _, c := range result.Conflicts {
		reasons[c.Reason] = true
	}
	if !reasons[ReasonMultipleCreates] || !reasons[ReasonCreateMixedWithEdit] {
		t.Fatalf("expected both create conflicts, got %+v", result.Conflicts)
	}
}
