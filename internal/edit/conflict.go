package edit

import "strings"

// DetectConflicts analyzes a batch of proposed edits without touching the
// filesystem. It groups edits by file path and flags combinations that are
// unsafe to apply together:
//
//   - two edits whose old_string values are substrings of one another (either
//     direction) would race for the same region of the file;
//   - more than one creation edit for the same file;
//   - a creation edit mixed with content edits on the same file.
//
// A file may accumulate more than one conflict reason. Detection is
// deterministic given the same input order.
func DetectConflicts(edits []SingleEditParams) ConflictDetectionResult {
	byFile := make(map[string][]int)
	var order []string
	for i, e := range edits {
		if _, seen := byFile[e.FilePath]; !seen {
			order = append(order, e.FilePath)
		}
		byFile[e.FilePath] = append(byFile[e.FilePath], i)
	}

	var conflicts []Conflict
	for _, path := range order {
		indices := byFile[path]
		if len(indices) < 2 {
			continue
		}
		conflicts = append(conflicts, detectFileConflicts(path, indices, edits)...)
	}

	return ConflictDetectionResult{
		HasConflicts: len(conflicts) > 0,
		Conflicts:    conflicts,
	}
}

func detectFileConflicts(path string, indices []int, edits []SingleEditParams) []Conflict {
	var conflicts []Conflict

	var creates, replaces []int
	for _, i := range indices {
		if edits[i].IsCreate() {
			creates = append(creates, i)
		} else {
			replaces = append(replaces, i)
		}
	}

	// Overlap check only applies between replacement edits: a creation edit
	// has an empty old_string which is trivially a substring of everything.
	var overlapping []int
	for a := 0; a < len(replaces); a++ {
		for b := a + 1; b < len(replaces); b++ {
			ia, ib := replaces[a], replaces[b]
			if substringEither(edits[ia].OldString, edits[ib].OldString) {
				overlapping = appendUnique(overlapping, ia, ib)
			}
		}
	}
	if len(overlapping) > 0 {
		conflicts = append(conflicts, Conflict{
			FilePath:    path,
			EditIndices: overlapping,
			Reason:      ReasonOverlappingEdits,
		})
	}

	if len(creates) > 1 {
		conflicts = append(conflicts, Conflict{
			FilePath:    path,
			EditIndices: creates,
			Reason:      ReasonMultipleCreates,
		})
	}

	if len(creates) > 0 && len(replaces) > 0 {
		conflicts = append(conflicts, Conflict{
			FilePath:    path,
			EditIndices: indices,
			Reason:      ReasonCreateMixedWithEdit,
		})
	}

	return conflicts
}

func substringEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func appendUnique(list []int, values ...int) []int {
	for _, v := range values {
		found := false
		for _, existing := range list {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			list = append(list, v)
		}
	}
	return list
}
