package emailService

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

const (
	subjectBudgetAlert    = "Budget alert for your default account"
	templateBudgetAlert   = "budget_alert.html"
	subjectMonthlyReport  = "Your monthly financial report"
	templateMonthlyReport = "monthly_report.html"
)

type EmailData interface {
	TemplateFileName() string
	Subject() string
}

type EmailSender interface {
	QueueEmail(to string, data EmailData)
	SendEmail(to string, data EmailData) error
}

type BudgetAlertData struct {
	UserName       string
	AccountName    string
	BudgetAmount   string
	TotalExpenses  string
	PercentageUsed string
}

func (d BudgetAlertData) TemplateFileName() string {
	return templateBudgetAlert
}

func (d BudgetAlertData) Subject() string {
	return subjectBudgetAlert
}

type CategoryLine struct {
	Category string
	Total    string
}

type MonthlyReportData struct {
	UserName      string
	Month         string
	TotalIncome   string
	TotalExpenses string
	Net           string
	ByCategory    []CategoryLine
	Insights      []string
}

func (d MonthlyReportData) TemplateFileName() string {
	return templateMonthlyReport
}

func (d MonthlyReportData) Subject() string {
	return subjectMonthlyReport
}

type EmailService struct {
	from         string
	password     string
	templatesDir string
	smtpHost     string
	smtpPort     string
	taskQueue    chan EmailTask
}

type EmailTask struct {
	to           string
	templateFile string
	data         EmailData
	subject      string
}

var (
	instance *EmailService
	once     sync.Once
)

func NewEmailService() *EmailService {
	once.Do(func() {
		err := godotenv.Load()
		if err != nil {
			log.Println("Error loading .env file, continuing with system environment variables")
		}

		templatesDir := os.Getenv("TEMPLATES_DIR")
		if templatesDir == "" {
			log.Fatalf("TEMPLATES_DIR is not set in .env file")
		}

		email := os.Getenv("EMAIL_ADDRESS")
		if email == "" {
			log.Fatalf("EMAIL_ADDRESS is not set in .env file")
		}
		password := os.Getenv("EMAIL_PASSWORD")
		if password == "" {
			log.Fatalf("EMAIL_PASSWORD is not set in .env file")
		}

		smtpHost := os.Getenv("SMTP_HOST")
		if smtpHost == "" {
			smtpHost = "smtp.gmail.com"
		}
		smtpPort := os.Getenv("SMTP_PORT")
		if smtpPort == "" {
			smtpPort = "587"
		}

		instance = &EmailService{
			from:         email,
			password:     password,
			templatesDir: templatesDir,
			smtpHost:     smtpHost,
			smtpPort:     smtpPort,
			taskQueue:    make(chan EmailTask, 100),
		}

		go instance.worker()
	})
	return instance
}

func (s *EmailService) worker() {
	for task := range s.taskQueue {
		err := s.sendTemplatedEmail(task.to, task.templateFile, task.data, task.subject)
		if err != nil {
			log.Printf("Error sending email to %s: %v", task.to, err)
		}
	}
}

// QueueEmail sends asynchronously; failures are only logged.
func (s *EmailService) QueueEmail(to string, data EmailData) {
	s.taskQueue <- EmailTask{to, data.TemplateFileName(), data, data.Subject()}
}

// SendEmail sends synchronously so the caller can react to a failed send.
// The budget alert checker depends on this: last_alert_sent is only advanced
// after a successful delivery.
func (s *EmailService) SendEmail(to string, data EmailData) error {
	return s.sendTemplatedEmail(to, data.TemplateFileName(), data, data.Subject())
}

func (s *EmailService) sendTemplatedEmail(to, templateFileName string, data EmailData, subject string) error {
	templatePath := filepath.Join(s.templatesDir, templateFileName)
	if _, err := os.Stat(templatePath); os.IsNotExist(err) {
		return fmt.Errorf("template file does not exist: %v", err)
	}

	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return fmt.Errorf("error parsing template: %v", err)
	}

	var body bytes.Buffer
	err = tmpl.Execute(&body, data)
	if err != nil {
		return fmt.Errorf("error executing template: %v", err)
	}

	message := []byte("Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\";\r\n\r\n" +
		body.String())

	auth := smtp.PlainAuth("", s.from, s.password, s.smtpHost)
	err = smtp.SendMail(s.smtpHost+":"+s.smtpPort, auth, s.from, []string{to}, message)
	if err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	return nil
}
