package opt

import "fmt"

// Cost is the three-component cost vector: estimated rows
// produced, CPU units, and I/O units. Costs are non-negative; comparison is
// lexicographic on (Rows, CPU, IO) unless Tiny/Huge sentinels are involved.
type Cost struct {
	Rows float64
	CPU  float64
	IO   float64

	// tiny and huge are mutually exclusive sentinels a provider can set to
	// place a cost below/above all finite costs. A coster
	// uses this for, e.g., a Values node with zero rows, or a plan proven
	// infeasible.
	tiny bool
	huge bool
}

// Zero is the additive identity.
func Zero() Cost { return Cost{} }

// Huge is the absorbing element for comparison: greater than every finite
// cost and every Tiny cost.
func Huge() Cost { return Cost{huge: true} }

// Tiny is less than every finite cost.
func Tiny() Cost { return Cost{tiny: true} }

// IsHuge reports whether c is the Huge sentinel.
func (c Cost) IsHuge() bool { return c.huge }

// IsTiny reports whether c is the Tiny sentinel.
func (c Cost) IsTiny() bool { return c.tiny }

// Add combines two costs componentwise. Huge absorbs; Tiny is the identity
// unless the other operand is also Tiny or Huge.
func (c Cost) Add(o Cost) Cost {
	if c.huge || o.huge {
		return Huge()
	}
	if c.tiny && o.tiny {
		return Tiny()
	}
	if c.tiny {
		return o
	}
	if o.tiny {
		return c
	}
	return Cost{Rows: c.Rows + o.Rows, CPU: c.CPU + o.CPU, IO: c.IO + o.IO}
}

// Less implements the total order: Tiny < any finite cost <
// Huge; finite costs compare lexicographically on (Rows, CPU, IO).
func (c Cost) Less(o Cost) bool {
	if c.tiny && !o.tiny {
		return true
	}
	if o.tiny {
		return false
	}
	if o.huge && !c.huge {
		return true
	}
	if c.huge {
		return false
	}
	if c.Rows != o.Rows {
		return c.Rows < o.Rows
	}
	if c.CPU != o.CPU {
		return c.CPU < o.CPU
	}
	return c.IO < o.IO
}

// LessOrEqual reports c <= o under the same order as Less.
func (c Cost) LessOrEqual(o Cost) bool {
	return !o.Less(c)
}

func (c Cost) String() string {
	if c.huge {
		return "huge"
	}
	if c.tiny {
		return "tiny"
	}
	return fmt.Sprintf("{rows:%.2f cpu:%.2f io:%.2f}", c.Rows, c.CPU, c.IO)
}

// DefaultSelfCost is used by a coster when an operator variant supplies no
// explicit self-cost of its own.
func DefaultSelfCost() Cost { return Cost{Rows: 1, CPU: 1, IO: 1} }
