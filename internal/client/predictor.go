package client

import (
	"math"

	"github.com/emberwold/server/internal/sim"
)

// correctionEpsilon is the divergence, in pixels, below which an
// authoritative correction is ignored in favour of the local prediction.
const correctionEpsilon = 0.5

type pendingInput struct {
	Sequence  uint32
	Timestamp uint64
	MoveX     float64
	MoveY     float64
	Predicted sim.Vec2
}

// Predictor applies inputs locally the instant they are sent and reconciles
// against authoritative state when the server echoes the last admitted input.
// It integrates with the same arithmetic the server uses; replay from an
// authoritative base over unacknowledged inputs lands on the server's result
// unless terrain the client has not seen intervened.
type Predictor struct {
	pos   sim.Vec2
	speed float64
	dt    float64 // seconds per input step

	history    []pendingInput
	maxHistory int

	maxX, maxY float64
}

// NewPredictor builds a predictor stepping dt seconds per input at the given
// speed. History is bounded; when full, the oldest entry is dropped.
func NewPredictor(speed, dt float64, maxHistory int) *Predictor {
	return &Predictor{
		speed:      speed,
		dt:         dt,
		maxHistory: maxHistory,
		maxX:       math.Inf(1),
		maxY:       math.Inf(1),
	}
}

// SetBounds clamps predicted movement to the world rectangle, matching the
// server's clamp when the map extents are known.
func (p *Predictor) SetBounds(maxX, maxY float64) {
	p.maxX, p.maxY = maxX, maxY
}

// Reset snaps the predictor to an authoritative position and clears history.
// Called on snapshot.
func (p *Predictor) Reset(pos sim.Vec2) {
	p.pos = pos
	p.history = p.history[:0]
}

// Pos returns the current predicted position.
func (p *Predictor) Pos() sim.Vec2 { return p.pos }

// PendingInputs returns how many inputs await acknowledgement.
func (p *Predictor) PendingInputs() int { return len(p.history) }

// Predict integrates one input locally and records it for replay. Returns
// the new predicted position.
func (p *Predictor) Predict(seq uint32, ts uint64, moveX, moveY float64, w sim.Walkable) sim.Vec2 {
	move := sim.ClampMove(moveX, moveY)
	p.pos = sim.Step(p.pos, move, p.speed, p.dt, p.maxX, p.maxY, w)

	if len(p.history) >= p.maxHistory {
		copy(p.history, p.history[1:])
		p.history = p.history[:len(p.history)-1]
	}
	p.history = append(p.history, pendingInput{
		Sequence:  seq,
		Timestamp: ts,
		MoveX:     moveX,
		MoveY:     moveY,
		Predicted: p.pos,
	})
	return p.pos
}

// Reconcile folds an authoritative position for ackSeq into the prediction:
// inputs up to and including ackSeq are discarded, the remainder is replayed
// from the authoritative base, and the prediction snaps to the replayed
// result when it diverged beyond the epsilon.
func (p *Predictor) Reconcile(authoritative sim.Vec2, ackSeq uint32, w sim.Walkable) sim.Vec2 {
	drop := 0
	for drop < len(p.history) && p.history[drop].Sequence <= ackSeq {
		drop++
	}
	p.history = p.history[drop:]

	replayed := authoritative
	for i := range p.history {
		move := sim.ClampMove(p.history[i].MoveX, p.history[i].MoveY)
		replayed = sim.Step(replayed, move, p.speed, p.dt, p.maxX, p.maxY, w)
		p.history[i].Predicted = replayed
	}

	if sim.Dist(replayed, p.pos) > correctionEpsilon {
		p.pos = replayed
	}
	return p.pos
}
