package textutil

// Ternary returns ifTrue when cond holds, else ifFalse.
func Ternary[T any](cond bool, ifTrue, ifFalse T) T {
	if cond {
		return ifTrue
	}
	return ifFalse
}
