package intercept

// DeclineReason says why a trap fell back to default storage.
type DeclineReason uint8

const (
	// NoDelegate: the slot is empty or holds a value that is not callable.
	NoDelegate DeclineReason = iota
	// Reentrant: the delegate for this kind is already running on this object.
	Reentrant
	// Reserved: the name is a delegate slot identifier.
	Reserved
)

func (r DeclineReason) String() string {
	switch r {
	case NoDelegate:
		return "no_delegate"
	case Reentrant:
		return "reentrant"
	case Reserved:
		return "reserved"
	default:
		return "unknown"
	}
}

// Observer is notified of every trap decision. Implementations must be cheap;
// they run inline with property access.
type Observer interface {
	Delegated(kind Kind)
	Declined(kind Kind, reason DeclineReason)
	Failed(kind Kind)
}

type nopObserver struct{}

func (nopObserver) Delegated(Kind)               {}
func (nopObserver) Declined(Kind, DeclineReason) {}
func (nopObserver) Failed(Kind)                  {}

// Option configures an Object at construction.
type Option func(*Object)

// WithObserver reports trap decisions to obs.
func WithObserver(obs Observer) Option {
	return func(o *Object) {
		if obs != nil {
			o.observer = obs
		}
	}
}
