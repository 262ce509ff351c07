package docmerge

// ResolveOrder maps an optional caller-supplied name ordering plus the
// original upload order to a single canonical file sequence. Files named in
// order come first, in the given order; files not named (and names matching
// nothing) follow in upload order. Resolution is deterministic and
// idempotent: resolving an already-resolved sequence yields the same result.
func ResolveOrder(files []InputFile, order []string) []InputFile {
	if len(order) == 0 {
		out := make([]InputFile, len(files))
		copy(out, files)
		return out
	}

	resolved := make([]InputFile, 0, len(files))
	used := make([]bool, len(files))

	// Named files first, in the caller's order. A name claims only its
	// first unused match so duplicates resolve deterministically.
	for _, name := range order {
		for i, f := range files {
			if !used[i] && f.OriginalName == name {
				resolved = append(resolved, f)
				used[i] = true
				break
			}
		}
	}

	// Remainder keeps upload order.
	for i, f := range files {
		if !used[i] {
			resolved = append(resolved, f)
		}
	}

	return resolved
}

// GroupByType splits files by detected kind, preserving relative order
// within each group. Grouping never reorders the merge sequence; assembly
// uses the resolved order, not the groups.
func GroupByType(files []InputFile) map[FileType][]InputFile {
	groups := make(map[FileType][]InputFile)
	for _, f := range files {
		groups[f.Type] = append(groups[f.Type], f)
	}
	return groups
}
