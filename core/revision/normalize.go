package revision

// Merge collapses consecutive ops of the same kind into one op and drops
// empty ops. Both reconstructions are preserved exactly.
func Merge(script Script) Script {
	merged := make(Script, 0, len(script))
	for _, op := range script {
		if op.Text == "" {
			continue
		}
		if n := len(merged); n > 0 && merged[n-1].Kind == op.Kind {
			merged[n-1].Text += op.Text
			continue
		}
		merged = append(merged, op)
	}
	return merged
}

// Normalize merges the script and then suppresses trivial changes: a
// Delete or Insert whose text is pure short whitespace or a lone
// sentence-level punctuation mark is reclassified as Equal, so it renders
// as plain retained text. A trivial Delete directly followed by a trivial
// Insert is a suppressed replace pair; only the corrected side is retained
// so the body never shows both marks. Equal ops are never suppressed.
func Normalize(script Script, p Policy) Script {
	merged := Merge(script)
	out := make(Script, 0, len(merged))

	for i := 0; i < len(merged); i++ {
		op := merged[i]
		if op.Kind == OpEqual || !p.trivial(op.Text) {
			out = append(out, op)
			continue
		}
		if op.Kind == OpDelete && i+1 < len(merged) &&
			merged[i+1].Kind == OpInsert && p.trivial(merged[i+1].Text) {
			out = append(out, EditOp{Kind: OpEqual, Text: merged[i+1].Text})
			i++
			continue
		}
		out = append(out, EditOp{Kind: OpEqual, Text: op.Text})
	}
	return Merge(out)
}

// HasMeaningfulChanges reports whether the pair still differs after the
// full align-merge-suppress pipeline under the default policy. Callers use
// it to choose between a tracked-changes render and a no-changes document.
func HasMeaningfulChanges(original, corrected string) bool {
	return HasMeaningfulChangesPolicy(original, corrected, DefaultPolicy())
}

// HasMeaningfulChangesPolicy is HasMeaningfulChanges with explicit
// suppression thresholds.
func HasMeaningfulChangesPolicy(original, corrected string, p Policy) bool {
	if original == corrected {
		return false
	}
	return Normalize(Align(original, corrected), p).HasChanges()
}
