package domain

type ChangeAction string

const (
	ActionInsert ChangeAction = "insert"
	ActionUpdate ChangeAction = "update"
	ActionDelete ChangeAction = "delete"
	ActionAny    ChangeAction = "*"
)

// ChangeEvent is a row-level notification from the remote store.
type ChangeEvent struct {
	Table  string       `json:"table"`
	Action ChangeAction `json:"action"`
	RowID  string       `json:"id"`
}
