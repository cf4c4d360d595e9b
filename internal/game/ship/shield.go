package ship

// ShieldLayer is the regenerating absorption counter of a ship.
//
// Invariant: 0 <= layers <= maxLayers.
type ShieldLayer struct {
	layers        int
	maxLayers     int
	accumulator   float64
	interval      float64
	powerPerLayer int
}

// NewShieldLayer returns an empty shield with the given recharge interval and
// shields power needed per layer.
//
// Precondition: interval > 0; powerPerLayer >= 1.
func NewShieldLayer(interval float64, powerPerLayer int) *ShieldLayer {
	if powerPerLayer < 1 {
		powerPerLayer = 1
	}
	return &ShieldLayer{interval: interval, powerPerLayer: powerPerLayer}
}

// Layers returns the current layer count.
func (s *ShieldLayer) Layers() int { return s.layers }

// MaxLayers returns the cap derived from the last known shields power.
func (s *ShieldLayer) MaxLayers() int { return s.maxLayers }

// Accumulator returns seconds accumulated toward the next layer.
func (s *ShieldLayer) Accumulator() float64 { return s.accumulator }

// PowerPerLayer returns the shields power that funds one layer.
func (s *ShieldLayer) PowerPerLayer() int { return s.powerPerLayer }

// Sync recomputes the cap from shields effective power and clamps layers down to it.
//
// Postcondition: 0 <= Layers() <= MaxLayers().
func (s *ShieldLayer) Sync(effectivePower int) {
	s.maxLayers = effectivePower / s.powerPerLayer
	if s.layers > s.maxLayers {
		s.layers = s.maxLayers
	}
	if s.layers == s.maxLayers {
		s.accumulator = 0
	}
}

// Fill raises layers to the cap, used when an engagement starts.
func (s *ShieldLayer) Fill() {
	s.layers = s.maxLayers
	s.accumulator = 0
}

// regen accumulates dt toward the next layer while below the cap and powered.
// Leftover time carries into the next layer, so the layer count after a span
// of time does not depend on how it was divided into ticks.
func (s *ShieldLayer) regen(dt float64, effectivePower int) {
	if effectivePower <= 0 || s.layers >= s.maxLayers {
		return
	}
	s.accumulator += dt
	for s.layers < s.maxLayers && s.accumulator >= s.interval {
		s.layers++
		s.accumulator -= s.interval
	}
	if s.layers >= s.maxLayers {
		s.accumulator = 0
	}
}

// Absorb consumes one layer.
//
// Postcondition: Returns true iff a layer was consumed; the recharge accumulator is reset.
func (s *ShieldLayer) Absorb() bool {
	if s.layers <= 0 {
		return false
	}
	s.layers--
	s.accumulator = 0
	return true
}
