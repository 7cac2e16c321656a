package domain

import "time"

// Department is an organizational grouping within the club. At most one
// member leads a department.
type Department struct {
	ID          DepartmentID
	Name        string
	Slug        string
	Description string
	LeaderID    *MemberID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Course is an academic course a member may be enrolled in. Members whose
// course is not listed record it as free text on the member itself.
type Course struct {
	ID   CourseID
	Name string
	Code string
}
