package core

import "fmt"

// Loc is a source location carried by every term and declaration. A zero
// Loc means the node was synthesized by a pass rather than read from
// source — IsZero lets diagnostics and property tests tell the two apart.
type Loc struct {
	File string
	Line int
	Col  int
}

// IsZero reports whether loc carries no source position.
func (loc Loc) IsZero() bool {
	return loc.File == "" && loc.Line == 0 && loc.Col == 0
}

func (loc Loc) String() string {
	if loc.IsZero() {
		return "<generated>"
	}
	return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
}

// Synthetic is the canonical Loc used by passes that construct new nodes.
var Synthetic = Loc{}
