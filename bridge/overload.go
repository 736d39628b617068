package bridge

// Resolve picks the method of g that best accepts args. It returns
// *NoMatchError when no candidate accepts every argument and
// *AmbiguousOverloadError when the best score is shared.
func (g *OverloadGroup) Resolve(args []any) (*Method, error) {
	return resolveOverload(g.Name, g.methods, args)
}

// resolveOverload is a pure function of the candidates and the arguments:
// candidates of the wrong arity are skipped, a candidate with any
// zero-scoring parameter is eliminated, and the strict maximum of the
// summed scores wins.
func resolveOverload(name string, candidates []*Method, args []any) (*Method, error) {
	var (
		best      *Method
		bestScore = -1
		tied      []*Method
	)
	for _, m := range candidates {
		if len(m.Params) != len(args) {
			continue
		}
		score, ok := m.score(args)
		if !ok {
			continue
		}
		switch {
		case score > bestScore:
			best, bestScore = m, score
			tied = tied[:0]
		case score == bestScore:
			tied = append(tied, m)
		}
	}
	if best == nil {
		return nil, &NoMatchError{Name: name, Args: args}
	}
	if len(tied) > 0 {
		return nil, &AmbiguousOverloadError{
			Name:       name,
			Args:       args,
			Candidates: append([]*Method{best}, tied...),
			Score:      bestScore,
		}
	}
	return best, nil
}
