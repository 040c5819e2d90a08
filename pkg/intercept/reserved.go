package intercept

// Reserved identifiers naming the delegate slots. Reads and writes of these
// names never reach a delegate.
const (
	OnGetNamed   = "onGetNamed"
	OnSetNamed   = "onSetNamed"
	OnGetIndexed = "onGetIndexed"
	OnSetIndexed = "onSetIndexed"
)

// IsReserved reports whether name is one of the four delegate slot identifiers.
func IsReserved(name string) bool {
	switch name {
	case OnGetNamed, OnSetNamed, OnGetIndexed, OnSetIndexed:
		return true
	}
	return false
}

// Kind identifies one of the four intercepted operations.
type Kind uint8

const (
	GetNamed Kind = iota
	SetNamed
	GetIndexed
	SetIndexed
)

// Kinds lists every operation kind in declaration order.
var Kinds = [...]Kind{GetNamed, SetNamed, GetIndexed, SetIndexed}

var kindNames = [...]string{"getNamed", "setNamed", "getIndexed", "setIndexed"}
var kindSlots = [...]string{OnGetNamed, OnSetNamed, OnGetIndexed, OnSetIndexed}
var kindFlags = [...]string{"inGetNamed", "inSetNamed", "inGetIndexed", "inSetIndexed"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Slot returns the reserved identifier holding the delegate for k.
func (k Kind) Slot() string {
	if int(k) < len(kindSlots) {
		return kindSlots[k]
	}
	return ""
}

// Flag returns the name of the reentrancy guard for k.
func (k Kind) Flag() string {
	if int(k) < len(kindFlags) {
		return kindFlags[k]
	}
	return ""
}
