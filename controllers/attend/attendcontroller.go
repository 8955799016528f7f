package attend

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"edisonvision/attendance"
	"edisonvision/config"
	"edisonvision/models"
)

// Controller carries the attendance endpoints' collaborators.
type Controller struct {
	Schedules attendance.ScheduleRepository
	Store     *models.AttendanceStore
	Recorder  *attendance.Recorder
}

func NewController(schedules attendance.ScheduleRepository, store *models.AttendanceStore, recorder *attendance.Recorder) *Controller {
	return &Controller{Schedules: schedules, Store: store, Recorder: recorder}
}

type ManualCheckInPayload struct {
	StudentId string `json:"student_id" binding:"required"`
	ClassId   string `json:"class_id" binding:"required"`
}

// ManualCheckInHandler records an operator-entered check-in using the
// class's schedule for today to resolve the status.
func (ct *Controller) ManualCheckInHandler(c *gin.Context) {
	var payload ManualCheckInPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check-in payload: " + err.Error()})
		return
	}

	now := time.Now()
	window, err := attendance.WindowFromSchedule(
		ct.Schedules, payload.ClassId, now,
		config.PreWindowMinutes(), config.LateThresholdMinutes(),
	)
	if err != nil {
		if errors.Is(err, attendance.ErrNoScheduleForDay) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "class has no schedule today; start a session or add a schedule first",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up class schedule"})
		return
	}

	out, err := ct.Recorder.CheckIn(payload.StudentId, payload.ClassId, now, &window, nil, attendance.SourceManual)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record attendance"})
		return
	}

	switch out.Kind {
	case attendance.AlreadyCheckedIn:
		c.JSON(http.StatusOK, gin.H{"message": "already checked in today"})
	case attendance.Recorded:
		c.JSON(http.StatusCreated, gin.H{
			"message":      "check-in recorded",
			"status":       out.Record.Status,
			"late_minutes": out.Record.LateMinutes,
		})
	default:
		c.JSON(http.StatusConflict, gin.H{"error": "attendance status could not be determined"})
	}
}

// GetAttendanceHandler lists the ledger for one class and day.
func (ct *Controller) GetAttendanceHandler(c *gin.Context) {
	classId := c.Param("classId")
	date := c.DefaultQuery("date", time.Now().Format("2006-01-02"))

	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	records, err := ct.Store.ListForClassDate(classId, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load attendance records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"class_id": classId, "date": date, "records": records})
}

// WindowStatusHandler reports where today's check-in window for a class
// currently sits (before / open / grace / late) for the operator display.
func (ct *Controller) WindowStatusHandler(c *gin.Context) {
	classId := c.Param("classId")
	now := time.Now()

	window, err := attendance.WindowFromSchedule(
		ct.Schedules, classId, now,
		config.PreWindowMinutes(), config.LateThresholdMinutes(),
	)
	if err != nil {
		if errors.Is(err, attendance.ErrNoScheduleForDay) {
			c.JSON(http.StatusNotFound, gin.H{"error": "class has no schedule today"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up class schedule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"class_id":          classId,
		"phase":             window.Phase(now).String(),
		"class_start":       window.ClassStart,
		"pre_checkin_start": window.PreCheckinStart,
		"late_time":         window.LateTime,
	})
}
