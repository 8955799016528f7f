package face

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"edisonvision/attendance"
	"edisonvision/config"
	"edisonvision/facerec"
	"edisonvision/models"
)

// Controller carries the face endpoints' collaborators. Everything is
// injected; handlers hold no hidden global state.
type Controller struct {
	Students  *models.StudentRepo
	Schedules attendance.ScheduleRepository
	Gallery   *facerec.Gallery
	Recorder  *attendance.Recorder
}

func NewController(students *models.StudentRepo, schedules attendance.ScheduleRepository, gallery *facerec.Gallery, recorder *attendance.Recorder) *Controller {
	return &Controller{
		Students:  students,
		Schedules: schedules,
		Gallery:   gallery,
		Recorder:  recorder,
	}
}

type RegisterFacePayload struct {
	StudentId string    `json:"student_id" binding:"required"`
	Embedding []float64 `json:"embedding" binding:"required"`
	ImagePath string    `json:"image_path"`
}

// RegisterFaceHandler stores a student's face embedding in canonical form
// and refreshes the gallery so the new face matches immediately.
func (ct *Controller) RegisterFaceHandler(c *gin.Context) {
	// 1. Validate input
	var payload RegisterFacePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid face payload: " + err.Error()})
		return
	}
	if len(payload.Embedding) != facerec.EmbeddingSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("embedding must have %d values, got %d", facerec.EmbeddingSize, len(payload.Embedding)),
		})
		return
	}

	// 2. Store the canonical encoding
	encoded := facerec.EncodeEmbedding(payload.Embedding)
	if err := ct.Students.SaveEncoding(payload.StudentId, encoded, payload.ImagePath); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save face encoding"})
		return
	}

	// 3. Reload the gallery; a refresh failure keeps the old gallery, so
	// report it but do not undo the enrollment
	if err := ct.Gallery.Refresh(ct.Students); err != nil {
		c.JSON(http.StatusCreated, gin.H{
			"message": "face saved, but gallery refresh failed; it will match after the next refresh",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "face registered", "gallery_size": ct.Gallery.Size()})
}

type CheckInPayload struct {
	ClassId   string    `json:"class_id" binding:"required"`
	Embedding []float64 `json:"embedding" binding:"required"`
}

// CheckInHandler matches a probe embedding against the gallery and, on an
// accepted match, records attendance for the identified student.
func (ct *Controller) CheckInHandler(c *gin.Context) {
	// 1. Validate input
	var payload CheckInPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check-in payload: " + err.Error()})
		return
	}
	if len(payload.Embedding) != facerec.EmbeddingSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("embedding must have %d values, got %d", facerec.EmbeddingSize, len(payload.Embedding)),
		})
		return
	}

	// 2. Match against the gallery
	gallery := ct.Gallery.Entries()
	if len(gallery) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no faces enrolled yet"})
		return
	}

	res, ok := facerec.Match(payload.Embedding, gallery, config.MatchTolerance())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "face not recognized"})
		return
	}
	if res.Confidence < config.MinConfidence() {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": fmt.Sprintf("match confidence too low (%.1f%%, need %.1f%%)",
				res.Confidence*100, config.MinConfidence()*100),
		})
		return
	}

	// 3. Build the window from today's schedule
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

	// 4. Record the check-in
	out, err := ct.Recorder.CheckIn(res.StudentId, payload.ClassId, now, &window, &res.Confidence, attendance.SourceFace)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record attendance"})
		return
	}

	switch out.Kind {
	case attendance.AlreadyCheckedIn:
		c.JSON(http.StatusOK, gin.H{
			"message":    "already checked in today",
			"student_id": res.StudentId,
		})
	case attendance.Recorded:
		c.JSON(http.StatusCreated, gin.H{
			"message":      "check-in recorded",
			"student_id":   res.StudentId,
			"status":       out.Record.Status,
			"late_minutes": out.Record.LateMinutes,
			"confidence":   res.Confidence,
		})
	default:
		c.JSON(http.StatusConflict, gin.H{"error": "attendance status could not be determined"})
	}
}
