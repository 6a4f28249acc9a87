package hexgame

// Remaining returns defaultPoints minus the sum of costs in actions. A
// negative result means the candidate set is over budget; callers compare
// against zero, never mutate state here.
func Remaining(defaultPoints int, actions []GameAction) int {
	sum := 0
	for _, a := range actions {
		sum += a.Cost
	}
	return defaultPoints - sum
}
