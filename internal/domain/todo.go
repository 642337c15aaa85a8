package domain

const (
	MinTodoPriority = 1
	MaxTodoPriority = 5
)

// Todo is a task owned by exactly one user.
type Todo struct {
	ID          int64
	Title       string
	Description string
	Priority    int
	Completed   bool
	OwnerID     int64
}
