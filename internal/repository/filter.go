package repository

import "time"

// ListFilter narrows the admin listings. Zero values mean no constraint;
// To is exclusive.
type ListFilter struct {
	Search string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
