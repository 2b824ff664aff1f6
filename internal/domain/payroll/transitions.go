package payroll

// Action is an operation that depends on the current payroll status.
type Action string

const (
	ActionApprove Action = "approve"
	ActionPay     Action = "pay"
	ActionAdjust  Action = "adjust"
)

var transitionMap = map[Action][]PayrollStatus{
	ActionApprove: {StatusDraft, StatusCalculated},
	ActionPay:     {StatusApproved},
	ActionAdjust:  {StatusDraft, StatusCalculated, StatusApproved},
}

// ValidTransition reports whether action may run on a record in status from.
func ValidTransition(action Action, from PayrollStatus) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == from {
			return true
		}
	}
	return false
}
