package ship

import "math"

// CrewAgent is one crew member aboard a ship.
//
// Invariant: Health <= MaxHealth; Health <= 0 means incapacitated.
type CrewAgent struct {
	ID        string
	Name      string
	Health    float64
	MaxHealth float64
	// Room is the room the agent currently stands in.
	Room string
	// Target is the room the agent is walking to; empty when stationary.
	Target string
	// X and Y are the agent's position in the ship layout.
	X, Y float64
	// RepairSpeed scales the repair cooldown; 1 is baseline.
	RepairSpeed float64
	// CombatBonus speeds weapon charging while manning the weapons room.
	CombatBonus float64

	repairCooldown float64
}

// Incapacitated reports whether the agent is out of action.
func (c *CrewAgent) Incapacitated() bool { return c.Health <= 0 }

// Moving reports whether the agent has a pending move order.
func (c *CrewAgent) Moving() bool { return c.Target != "" }

// RepairCooldown returns the seconds until the agent may repair again.
func (c *CrewAgent) RepairCooldown() float64 { return c.repairCooldown }

// hurt removes amount health.
//
// Postcondition: Returns true iff this call incapacitated the agent.
func (c *CrewAgent) hurt(amount float64) bool {
	if amount <= 0 || c.Incapacitated() {
		return false
	}
	c.Health -= amount
	return c.Incapacitated()
}

// heal restores amount health, capped at MaxHealth.
func (c *CrewAgent) heal(amount float64) {
	if amount <= 0 || c.Incapacitated() {
		return
	}
	c.Health = math.Min(c.MaxHealth, c.Health+amount)
}

// walk moves the agent toward room's anchor by at most step units.
//
// Postcondition: on arrival the agent stands at the anchor, Room == room.ID and Target is empty.
func (c *CrewAgent) walk(room *Room, step float64) {
	dx, dy := room.X-c.X, room.Y-c.Y
	dist := math.Hypot(dx, dy)
	if dist <= step {
		c.X, c.Y = room.X, room.Y
		c.Room = room.ID
		c.Target = ""
		return
	}
	c.X += dx / dist * step
	c.Y += dy / dist * step
}
