package main

import (
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"edisonvision/attendance"
	"edisonvision/controllers/attend"
	"edisonvision/controllers/auth"
	"edisonvision/controllers/face"
	"edisonvision/facerec"
	"edisonvision/middleware"
	"edisonvision/models"
)

func main() {
	db, err := models.ConnectDatabase()
	if err != nil {
		log.Fatal(err)
	}

	students := models.NewStudentRepo(db)
	schedules := models.NewScheduleRepo(db)
	store := models.NewAttendanceStore(db)

	gallery := facerec.NewGallery()
	if err := gallery.Refresh(students); err != nil {
		// stale-or-empty gallery still serves manual check-ins
		log.Printf("main: initial gallery load failed: %v", err)
	}

	recorder := attendance.NewRecorder(store)

	faceCtrl := face.NewController(students, schedules, gallery, recorder)
	attendCtrl := attend.NewController(schedules, store, recorder)

	r := gin.Default()
	r.Use(cors.Default())

	r.POST("/api/login", auth.LoginHandler)

	api := r.Group("/api", middleware.AuthRequired())
	{
		api.POST("/faces", faceCtrl.RegisterFaceHandler)
		api.POST("/checkin/face", faceCtrl.CheckInHandler)
		api.POST("/checkin/manual", attendCtrl.ManualCheckInHandler)
		api.GET("/attendance/:classId", attendCtrl.GetAttendanceHandler)
		api.GET("/attendance/:classId/window", attendCtrl.WindowStatusHandler)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("main: listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
