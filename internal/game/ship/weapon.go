package ship

// Weapon is one weapon mount and its charge cycle.
//
// Invariant: 0 <= charge <= ChargeTime.
type Weapon struct {
	Name         string
	PowerCost    int
	ChargeTime   float64
	Shots        int
	Damage       int
	Piercing     bool
	FireChance   float64
	BreachChance float64

	charge   float64
	readyFor float64
}

// Charge returns accumulated charge in seconds.
func (w *Weapon) Charge() float64 { return w.charge }

// Ready reports whether the weapon is fully charged.
func (w *Weapon) Ready() bool { return w.charge >= w.ChargeTime }

// ReadyFor returns how long the weapon has been sitting ready while funded.
func (w *Weapon) ReadyFor() float64 { return w.readyFor }

// advance charges the weapon by amount seconds; wall is the real tick length
// used for the ready timer.
func (w *Weapon) advance(amount, wall float64) {
	if w.Ready() {
		w.readyFor += wall
		return
	}
	w.charge += amount
	if w.charge >= w.ChargeTime {
		w.charge = w.ChargeTime
	}
}

// Discharge empties the weapon after a volley has been accepted.
//
// Postcondition: Charge() == 0; ReadyFor() == 0.
func (w *Weapon) Discharge() {
	w.charge = 0
	w.readyFor = 0
}
