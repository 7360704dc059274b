package contextload

// EstimateTokens approximates token counts at one token per four
// characters, rounded up.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// EstimateContextTokens sums token estimates over every loaded section.
func EstimateContextTokens(set *ContextSet) int {
	total := 0
	for _, f := range set.Files {
		total += EstimateTokens(f.Content)
	}
	total += EstimateTokens(set.StagedDiff)
	total += EstimateTokens(set.PRDiff)
	total += EstimateTokens(set.Manifest)
	total += EstimateTokens(set.RecentChanges)
	for _, b := range set.Blame {
		total += EstimateTokens(b)
	}
	return total
}

// Truncate trims the context set down to maxTokens, dropping the least
// valuable sections first: blame, then recent changes, PR diff, staged
// diff, manifest, and last the file contents themselves (from the end of
// the list backwards, partially when that suffices). maxTokens <= 0 means
// no limit. The input is not modified.
func Truncate(set *ContextSet, maxTokens int) *ContextSet {
	if maxTokens <= 0 {
		return set
	}
	current := EstimateContextTokens(set)
	if current <= maxTokens {
		return set
	}

	out := *set
	out.Files = append([]File(nil), set.Files...)
	out.Blame = make(map[string]string, len(set.Blame))
	for k, v := range set.Blame {
		out.Blame[k] = v
	}

	drop := []func(){
		func() { out.Blame = map[string]string{} },
		func() { out.RecentChanges = "" },
		func() { out.PRDiff = "" },
		func() { out.StagedDiff = "" },
		func() { out.Manifest = "" },
	}
	for _, f := range drop {
		if current <= maxTokens {
			return &out
		}
		f()
		current = EstimateContextTokens(&out)
	}

	if current > maxTokens {
		truncateFiles(out.Files, current-maxTokens)
	}
	return &out
}

// truncateFiles frees roughly tokensToFree tokens by emptying files from
// the end of the slice, clipping the last touched file instead of dropping
// it when a partial cut is enough.
func truncateFiles(files []File, tokensToFree int) {
	freed := 0
	for i := len(files) - 1; i >= 0 && freed < tokensToFree; i-- {
		tokens := EstimateTokens(files[i].Content)
		if tokens == 0 {
			continue
		}
		remaining := tokensToFree - freed
		if tokens <= remaining {
			files[i].Content = ""
			freed += tokens
			continue
		}
		keep := (tokens - remaining) * 4
		files[i].Content = files[i].Content[:keep]
		freed = tokensToFree
	}
}
