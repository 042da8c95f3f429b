package dungeon

import (
	"fmt"
	"strings"
)

// Mechanic 首領機制種類（封閉集合）
type Mechanic uint8

const (
	Interrupt Mechanic = iota
	GroundAvoidance
	AddPriority
	Positioning
	Dispel
	Movement
	TankSwap
	Spread
	Stack
	mechanicCount
)

// NumMechanics is the size of the mechanic taxonomy.
const NumMechanics = int(mechanicCount)

var mechanicNames = [mechanicCount]string{
	"interrupt",
	"ground_avoidance",
	"add_priority",
	"positioning",
	"dispel",
	"movement",
	"tank_swap",
	"spread",
	"stack",
}

func (m Mechanic) String() string {
	if m < mechanicCount {
		return mechanicNames[m]
	}
	return fmt.Sprintf("mechanic(%d)", uint8(m))
}

// Valid reports whether m is part of the taxonomy.
func (m Mechanic) Valid() bool { return m < mechanicCount }

// ParseMechanic accepts the snake_case names used by Lua scripts.
func ParseMechanic(name string) (Mechanic, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range mechanicNames {
		if n == name {
			return Mechanic(i), true
		}
	}
	return 0, false
}

// Mechanics lists every mechanic in taxonomy order.
func Mechanics() []Mechanic {
	out := make([]Mechanic, mechanicCount)
	for i := range out {
		out[i] = Mechanic(i)
	}
	return out
}
