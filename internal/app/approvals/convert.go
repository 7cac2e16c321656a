package approvals

import (
	"time"

	"github.com/mzumbe-ict-club/membership-api/internal/domain"
)

func cloneTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneCourseID(p *domain.CourseID) *domain.CourseID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
