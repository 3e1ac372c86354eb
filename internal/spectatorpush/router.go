package spectatorpush

import "strings"

const (
	ScopeAll   = "all"
	ScopeTable = "table"
	ScopeRound = "round"
)

func validScope(scope string) bool {
	return scope == ScopeAll || scope == ScopeTable || scope == ScopeRound
}

// Router picks the webhooks one round event fans out to.
type Router struct{}

func (r Router) MatchTargets(targets []PushTarget, ev NormalizedEvent) []PushTarget {
	if len(targets) == 0 {
		return nil
	}
	out := make([]PushTarget, 0, len(targets))
	for _, target := range targets {
		if target.Enabled && inScope(target, ev) && eventAllowed(target.EventAllowlist, ev) {
			out = append(out, target)
		}
	}
	return out
}

// inScope treats an empty ScopeValue on a table or round target as
// matching nothing.
func inScope(target PushTarget, ev NormalizedEvent) bool {
	switch target.ScopeType {
	case ScopeTable:
		return target.ScopeValue != "" && target.ScopeValue == ev.TableID
	case ScopeRound:
		return target.ScopeValue != "" && target.ScopeValue == ev.RoundID
	}
	return target.ScopeType == ScopeAll
}

// eventAllowed matches "call" against every call and "call:pon" against
// pon calls only.
func eventAllowed(allowlist []string, ev NormalizedEvent) bool {
	if len(allowlist) == 0 {
		return true
	}
	kind := strings.ToLower(strings.TrimSpace(ev.EventType))
	meld := strings.ToLower(ev.MeldKind)
	for _, entry := range allowlist {
		entry = strings.ToLower(strings.TrimSpace(entry))
		name, want, scoped := strings.Cut(entry, ":")
		if name != kind {
			continue
		}
		if !scoped || want == meld {
			return true
		}
	}
	return false
}
