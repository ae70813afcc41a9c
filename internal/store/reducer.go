package store

// CombineReducers builds a tree reducer from one reducer per named
// slice. Each slice reducer only ever sees its own partition. Keys in
// the seed that no reducer claims are carried through untouched, so a
// server-rendered snapshot may hold more state than the shell manages.
func CombineReducers(reducers map[string]Reducer) Reducer {
	return func(prev any, action Action) any {
		prevTree, _ := prev.(map[string]any)

		next := make(map[string]any, len(prevTree)+len(reducers))
		for k, v := range prevTree {
			next[k] = v
		}
		for name, r := range reducers {
			var slice any
			if prevTree != nil {
				slice = prevTree[name]
			}
			next[name] = r(slice, action)
		}
		return next
	}
}
