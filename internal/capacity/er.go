package capacity

import "github.com/carepulse/carepulse/pkg/types"

// ER decision labels.
const (
	ERDecisionFreeze    = "FREEZE — ER Closed"
	ERDecisionRedirect  = "REDIRECT to Nearby Hospital"
	ERDecisionEmergency = "ADMITTED — Emergency Priority"
	ERDecisionAdmitted  = "ADMITTED — ER Available"
)

// RouteER decides ER admission for one patient from hospital-wide load and
// the patient's own emergency flag.
func RouteER(s types.HospitalStress, emergency bool) string {
	switch {
	case s.HSI > hsiEscalation:
		return ERDecisionFreeze
	case s.ERLoad >= erRedirectLoad:
		return ERDecisionRedirect
	case emergency:
		return ERDecisionEmergency
	default:
		return ERDecisionAdmitted
	}
}
