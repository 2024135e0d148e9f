package sample

// Grouped declares its types in a group.
type (
	Grouped struct{}
	Other   struct{}
)
