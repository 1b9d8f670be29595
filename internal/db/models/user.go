package models

import "strconv"

// UserRecord represents one row of the users table.
type UserRecord struct {
	ID   int64
	Name string
	Age  *int64 // nil when the column is NULL
}

// HasAge reports whether the age column was non-NULL.
func (u UserRecord) HasAge() bool {
	return u.Age != nil
}

// AgeString returns the age as text, or fallback when the column is NULL.
func (u UserRecord) AgeString(fallback string) string {
	if !u.HasAge() {
		return fallback
	}
	return strconv.FormatInt(*u.Age, 10)
}
