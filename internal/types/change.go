package types

// ChangeKind describes what part of a provider's action set changed.
// Consumers use it to choose between a partial re-render and a full
// rebuild.
type ChangeKind string

const (
	ChangeActionsAdded       ChangeKind = "actions_added"
	ChangeActionsRemoved     ChangeKind = "actions_removed"
	ChangeActionsUpdated     ChangeKind = "actions_updated"
	ChangeGroupUpdated       ChangeKind = "group_updated"
	ChangeBulkRefresh        ChangeKind = "bulk_refresh"
	ChangeReset              ChangeKind = "reset"
	ChangeProviderRegistered ChangeKind = "provider_registered"
)

// ChangeEvent is the typed change notification raised by a provider and
// fanned out by the runtime. AffectedIDs lists the action ids touched by
// the change where the kind makes that meaningful.
type ChangeEvent struct {
	ProviderID  string     `json:"provider_id"`
	Kind        ChangeKind `json:"kind"`
	AffectedIDs []string   `json:"affected_ids,omitempty"`
}
