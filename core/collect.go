package core

import "fmt"

// Collect states whether the collector is permitted to run cycles.
type Collect uint8

const (
	// NoCollect forbids collection cycles. It is the safe direction and
	// dominates every merge it takes part in.
	NoCollect Collect = iota
	// AllowCollect permits collection cycles. It never wins a merge.
	AllowCollect
)

// StrongerThan implements the domination order for collect values: NoCollect
// beats everything, AllowCollect beats nothing.
func (c Collect) StrongerThan(Collect) bool {
	return c == NoCollect
}

func (c Collect) String() string {
	if c == AllowCollect {
		return "collect"
	}
	return "nocollect"
}

// ParseCollect maps the wire spelling of a collect value back to its
// constant.
func ParseCollect(s string) (Collect, error) {
	switch s {
	case "collect":
		return AllowCollect, nil
	case "nocollect":
		return NoCollect, nil
	}
	return NoCollect, fmt.Errorf("unknown collect value %q", s)
}
