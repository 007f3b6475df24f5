package domain

// Actor is the identity performing the current operation, resolved from the
// caller's signed credential. It is passed explicitly to every operation.
type Actor struct {
	ID     string `json:"id"`
	Handle string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// Anonymous reports whether the actor carries no resolvable identity.
func (a Actor) Anonymous() bool {
	return a.ID == ""
}
