package attendance

import (
	"errors"
	"time"
)

// AttendanceLog is one punch-in/punch-out pair per salesperson per day,
// with the geolocation captured at punch-in.
type AttendanceLog struct {
	ID              int64      `json:"id" gorm:"primaryKey"`
	Username        string     `json:"user_name" gorm:"column:user_name;index;not null"`
	SalesPersonName string     `json:"sales_person_name" gorm:"column:sales_person_name"`
	Day             string     `json:"day" gorm:"column:day;index;not null"`
	PunchInTime     time.Time  `json:"punch_in_time" gorm:"column:punch_in_time;not null"`
	PunchOutTime    *time.Time `json:"punch_out_time,omitempty" gorm:"column:punch_out_time"`
	Latitude        float64    `json:"latitude" gorm:"column:latitude"`
	Longitude       float64    `json:"longitude" gorm:"column:longitude"`
	Location        string     `json:"location" gorm:"column:location"`
}

func (AttendanceLog) TableName() string {
	return "attendance_logs"
}

func (a *AttendanceLog) IsOpen() bool {
	return a.PunchOutTime == nil
}

var (
	ErrAlreadyPunchedIn = errors.New("attendance already open for today")
	ErrNotPunchedIn     = errors.New("no open attendance for today")
	ErrRecordNotFound   = errors.New("attendance record not found")
)
