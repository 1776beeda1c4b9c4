package domain

// Member represents an admitted participant of the room.
// No transport or lifecycle logic here.
type Member struct {
	ID       ConnID `json:"id"`
	Username string `json:"username"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(id ConnID, username string) Member {
	return Member{ID: id, Username: username}
}
