package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"text/template"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/abudi-09/CMS-sub000/internal/models"
	"github.com/abudi-09/CMS-sub000/internal/repository"
)

type NotificationService interface {
	Notify(ctx context.Context, notification *models.Notification) error
	NotifyUsers(ctx context.Context, userIDs []uuid.UUID, tmpl models.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]models.Notification, int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type notificationService struct {
	repo repository.NotificationRepository
	log  zerolog.Logger
}

func NewNotificationService(repo repository.NotificationRepository, log zerolog.Logger) NotificationService {
	return &notificationService{
		repo: repo,
		log:  log.With().Str("component", "notifications").Logger(),
	}
}

func (s *notificationService) Notify(ctx context.Context, notification *models.Notification) error {
	return s.repo.Create(ctx, notification)
}

// NotifyUsers fans one notification out to every listed user, deduplicating
// ids so no recipient is notified twice for the same event.
func (s *notificationService) NotifyUsers(ctx context.Context, userIDs []uuid.UUID, tmpl models.Notification) error {
	seen := make(map[uuid.UUID]struct{}, len(userIDs))
	batch := make([]models.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		n := tmpl
		n.ID = uuid.Nil
		n.UserID = id
		batch = append(batch, n)
	}
	return s.repo.CreateBatch(ctx, batch)
}

func (s *notificationService) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]models.Notification, int64, error) {
	return s.repo.ListForUser(ctx, userID, unreadOnly, page, limit)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: notification %s", ErrNotFound, id)
		}
		return err
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *notificationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: notification %s", ErrNotFound, id)
		}
		return err
	}
	return nil
}

// Mailer sends terminal-state emails to complaint submitters. Delivery is
// best-effort; callers schedule it through the dispatcher.
type Mailer struct {
	host    string
	port    string
	user    string
	pass    string
	from    string
	enabled bool
	log     zerolog.Logger
}

func NewMailer(host, port, user, pass, from string, log zerolog.Logger) *Mailer {
	return &Mailer{
		host:    host,
		port:    port,
		user:    user,
		pass:    pass,
		from:    from,
		enabled: host != "" && from != "",
		log:     log.With().Str("component", "mailer").Logger(),
	}
}

const statusEmailTemplate = `Dear {{.Name}},

Your complaint {{.Code}} ("{{.Title}}") is now marked as {{.Status}}.
{{if .Note}}
Resolution note:
{{.Note}}
{{end}}
Regards,
Complaint Management Office`

func (m *Mailer) SendStatusEmail(to, name string, c *models.Complaint) error {
	if !m.enabled {
		m.log.Debug().Str("to", to).Msg("smtp not configured, skipping email")
		return nil
	}

	body, err := RenderTemplate(statusEmailTemplate, map[string]string{
		"Name":   name,
		"Code":   c.ComplaintCode,
		"Title":  c.Title,
		"Status": string(c.Status),
		"Note":   c.ResolutionNote,
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Complaint %s is %s", c.ComplaintCode, c.Status)
	return m.send(to, subject, body)
}

func (m *Mailer) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	auth := smtp.PlainAuth("", m.user, m.pass, m.host)

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		m.from, to, subject, body))

	return smtp.SendMail(addr, auth, m.from, []string{to}, msg)
}

func RenderTemplate(tpl string, vars map[string]string) (string, error) {
	t, err := template.New("tpl").Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = t.Execute(&buf, vars)
	return buf.String(), err
}
