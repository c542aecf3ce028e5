package core

import "fmt"

// Setting pairs a governed value with the strength protecting it. The
// strength decides how requests from nested scopes merge into the value.
type Setting[T Stronger[T]] struct {
	Value    T
	Strength Strength[T]
}

func (s Setting[T]) String() string {
	return fmt.Sprintf("%v/%v", s.Value, s.Strength)
}
