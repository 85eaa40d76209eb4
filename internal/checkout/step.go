package checkout

// Step indexes the fixed wizard order. Forward progress is strictly
// sequential; there is no jump-to-step.
type Step int

const (
	StepCart Step = iota
	StepShipping
	StepPayment
	StepConfirmation
)

func (s Step) String() string {
	switch s {
	case StepCart:
		return "cart"
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	case StepConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

// Next advances one step, capped at the terminal confirmation step.
func (s Step) Next() Step {
	if s >= StepConfirmation {
		return StepConfirmation
	}
	return s + 1
}

// Prev retreats one step, floored at the cart. Never fails.
func (s Step) Prev() Step {
	if s <= StepCart {
		return StepCart
	}
	return s - 1
}

func (s Step) Terminal() bool {
	return s == StepConfirmation
}

func (s Step) InRange() bool {
	return s >= StepCart && s <= StepConfirmation
}
