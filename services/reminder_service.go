// services/reminder_service.go
package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"

	"github.com/xrkr80hd/EZApp/models"
	"github.com/xrkr80hd/EZApp/store"
)

// ReminderService nags consultants whose weekly availability schedule is
// stale. It reads the scheduler grid from the local store and reaches
// consultants through Twilio.
type ReminderService struct {
	db     *gorm.DB
	kv     store.KV
	client *twilio.RestClient
}

func NewReminderService(db *gorm.DB, kv store.KV) *ReminderService {
	// Initialize Twilio client
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &ReminderService{
		db: db,
		kv: kv,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
	}
}

// StartScheduler sends schedule reminders every Friday at 9 AM.
func (s *ReminderService) StartScheduler() {
	c := cron.New()

	if _, err := c.AddFunc("0 9 * * FRI", s.SendScheduleReminders); err != nil {
		log.Printf("Failed to register reminder job: %v", err)
		return
	}

	c.Start()
	log.Println("Schedule reminder job started")
}

type schedulerData struct {
	Name      string `json:"name"`
	WeekStart string `json:"weekStart"`
}

// SendScheduleReminders messages every active consultant when the saved
// availability grid does not cover the upcoming week.
func (s *ReminderService) SendScheduleReminders() {
	log.Println("Starting schedule reminder processing...")

	if s.scheduleIsCurrent() {
		log.Println("Availability schedule already covers next week, nothing to send")
		return
	}

	var consultants []models.Consultant
	if err := s.db.Find(&consultants, "active = ?", true).Error; err != nil {
		log.Printf("Failed to fetch consultants: %v", err)
		return
	}

	for _, consultant := range consultants {
		if consultant.Phone == "" {
			continue
		}
		s.sendReminder(consultant)
	}

	log.Println("Schedule reminder processing completed")
}

func (s *ReminderService) scheduleIsCurrent() bool {
	raw, ok := s.kv.Get(store.SchedulerDataKey)
	if !ok {
		return false
	}
	var data schedulerData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		log.Printf("Malformed scheduler data, treating as stale: %v", err)
		return false
	}
	weekStart, err := time.Parse("2006-01-02", data.WeekStart)
	if err != nil {
		return false
	}
	return !weekStart.Before(nextMonday(nowFunc()))
}

func nextMonday(t time.Time) time.Time {
	day := int(t.Weekday())
	diff := 8 - day
	if day == 0 {
		diff = 1
	}
	next := t.AddDate(0, 0, diff)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, t.Location())
}

func (s *ReminderService) sendReminder(consultant models.Consultant) {
	message := fmt.Sprintf(
		"Hi %s, your availability schedule for next week hasn't been submitted yet. Please fill in the scheduler before Monday.",
		consultant.FirstName,
	)

	// Determine channel (WhatsApp if phone is E.164, else SMS)
	channel := "sms"
	to := consultant.Phone
	if strings.HasPrefix(consultant.Phone, "+") {
		to = "whatsapp:" + consultant.Phone
		channel = "whatsapp"
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetBody(message)
	if channel == "whatsapp" {
		params.SetFrom("whatsapp:" + os.Getenv("TWILIO_WHATSAPP_NUMBER"))
	} else {
		params.SetFrom(os.Getenv("TWILIO_PHONE_NUMBER"))
	}

	resp, err := s.client.Api.CreateMessage(params)
	status := "sent"
	errorMsg := ""

	if err != nil {
		log.Printf("Failed to send reminder to %s: %v", consultant.Phone, err)
		status = "failed"
		errorMsg = err.Error()
	} else if resp.Sid != nil {
		log.Printf("Reminder sent to %s, SID: %s", consultant.Phone, *resp.Sid)
	} else {
		log.Printf("Reminder sent to %s, but no SID returned", consultant.Phone)
	}

	reminderLog := models.ReminderLog{
		CustomerID:   "",
		CustomerName: consultant.FirstName + " " + consultant.LastName,
		Message:      message,
		Status:       status,
		ErrorMessage: errorMsg,
		Channel:      channel,
		SentAt:       nowFunc(),
	}
	if err := s.db.Create(&reminderLog).Error; err != nil {
		log.Printf("Failed to log reminder for %s: %v", consultant.Username, err)
	}
}
