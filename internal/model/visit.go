package model

type VisitStatus string

const (
	VisitStatusScheduled VisitStatus = "scheduled"
	VisitStatusCompleted VisitStatus = "completed"
	VisitStatusMissed    VisitStatus = "missed"
)

// VisitRecord is a scheduled or completed prenatal visit for a patient.
// ScheduledDate is kept as the wire string; it may carry a time-of-day or zone suffix.
type VisitRecord struct {
	ID              int64       `json:"id"`
	PatientID       int64       `json:"patient_id"`
	PatientName     string      `json:"patient_name,omitempty"`
	VisitNumber     int         `json:"visit_number"`
	VisitName       string      `json:"visit_name"`
	RecommendedWeek int         `json:"recommended_week"`
	ScheduledDate   string      `json:"scheduled_date"`
	Status          VisitStatus `json:"status"`
}

func (v VisitRecord) RecordID() int64 {
	return v.ID
}

// ScheduleVisitRequest is the body sent when a visit is scheduled.
type ScheduleVisitRequest struct {
	PatientID       int64  `json:"patient_id" binding:"required,min=1"`
	VisitNumber     int    `json:"visit_number" binding:"required,min=1"`
	VisitName       string `json:"visit_name" binding:"required"`
	RecommendedWeek int    `json:"recommended_week" binding:"min=0,max=45"`
	ScheduledDate   string `json:"scheduled_date" binding:"required,datetime=2006-01-02"`
}
