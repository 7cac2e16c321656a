package domain

// MemberID is an internal identifier for a member record.
type MemberID string

// DepartmentID is an internal identifier for a department record.
type DepartmentID string

// CourseID is an internal identifier for a course record.
type CourseID string

// ProjectID is an internal identifier for a showcased project.
type ProjectID string

// EventID is an internal identifier for a club event.
type EventID string

// AnnouncementID is an internal identifier for an announcement.
type AnnouncementID string

// ContactMessageID is an internal identifier for a contact-form message.
type ContactMessageID string

// PaymentID is an internal identifier for a membership-fee payment.
type PaymentID string
