package policy

// Tier is the severity a final score is reported with
type Tier int

const (
	TierError Tier = iota
	TierWarning
	TierSuccess
)

func (t Tier) String() string {
	switch t {
	case TierSuccess:
		return "success"
	case TierWarning:
		return "warning"
	default:
		return "error"
	}
}

// TierFor maps a final score to its reporting tier:
// 100 is success, 90..99 a warning, anything lower an error.
func TierFor(score int) Tier {
	switch {
	case score >= 100:
		return TierSuccess
	case score >= AcceptThreshold:
		return TierWarning
	default:
		return TierError
	}
}
