package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/caf-approval/internal/application/port"
	"github.com/garyjia/caf-approval/internal/domain/entity"
	"github.com/garyjia/caf-approval/internal/domain/event"
)

// EmailObserverName is the name the observer reports to the dispatcher
const EmailObserverName = "email-notification"

// EmailConfig holds what the observer needs to compose messages
type EmailConfig struct {
	// FrontendBaseURL prefixes every link; links are omitted when empty
	FrontendBaseURL string
}

// EmailObserver notifies the people involved in a request about its
// lifecycle events
type EmailObserver struct {
	sender port.MessageSender
	cfg    EmailConfig
	logger *zap.Logger
}

// NewEmailObserver creates a new notification observer
func NewEmailObserver(sender port.MessageSender, cfg EmailConfig, logger *zap.Logger) *EmailObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailObserver{sender: sender, cfg: cfg, logger: logger}
}

func (o *EmailObserver) Name() string { return EmailObserverName }

func (o *EmailObserver) CanHandle(eventType event.Type) bool {
	switch eventType {
	case event.TypeRequestCreated, event.TypeRequestApproved,
		event.TypeRequestRejected, event.TypeRequestCorrected:
		return true
	}
	return false
}

// Handle composes the message for evt and sends it. A missing recipient
// is logged and skipped; delivery errors are returned to the dispatcher.
func (o *EmailObserver) Handle(ctx context.Context, evt event.Event) error {
	msg, err := o.Compose(evt)
	if err != nil {
		return err
	}

	if msg.To == "" {
		o.logger.Warn("No recipient for notification, skipping",
			zap.String("event_type", evt.Type().String()),
			zap.Int64("request_id", evt.RequestID()))
		return nil
	}

	if err := o.sender.SendMessage(ctx, msg); err != nil {
		o.logger.Error("Failed to send notification",
			zap.String("event_type", evt.Type().String()),
			zap.Int64("request_id", evt.RequestID()),
			zap.String("to", msg.To),
			zap.Error(err))
		return fmt.Errorf("send %s notification for request %d: %w", evt.Type(), evt.RequestID(), err)
	}

	o.logger.Info("Notification sent",
		zap.String("event_type", evt.Type().String()),
		zap.Int64("request_id", evt.RequestID()),
		zap.String("to", msg.To))
	return nil
}

// Compose builds the message for evt without sending it
func (o *EmailObserver) Compose(evt event.Event) (port.Message, error) {
	r := evt.Request()
	link := RequestLink(o.cfg.FrontendBaseURL, r)

	var (
		to      string
		subject string
		view    = messageView{RequestID: r.ID, Details: requestDetails(r)}
	)

	switch e := evt.(type) {
	case *event.RequestCreated:
		to = e.Responsible()
		subject = fmt.Sprintf("New CAF request #%d - approval required", r.ID)
		view.Heading = "New CAF request"
		view.Intro = "A new request is waiting for your review."
		view.Link, view.LinkLabel = link, "Review request"

	case *event.RequestCorrected:
		to = e.NotifyReviewer()
		if to == "" {
			to = r.Fields.Responsible
		}
		subject = fmt.Sprintf("CAF request #%d - corrections made", r.ID)
		view.Heading = "Corrections made"
		view.Intro = fmt.Sprintf("%s updated the request you sent back for correction.", nonEmpty(e.CorrectedBy(), "The requester"))
		view.Link, view.LinkLabel = link, "Review request"

	case *event.RequestApproved:
		to = r.RequestingActor
		subject = fmt.Sprintf("CAF request #%d - approved", r.ID)
		view.Heading = "Request approved"
		view.Intro = fmt.Sprintf("Your request was approved by %s.", nonEmpty(e.ApprovedBy(), r.Fields.Responsible))

	case *event.RequestRejected:
		to = r.RequestingActor
		view.Comments = e.Comments()
		by := nonEmpty(e.RejectedBy(), r.Fields.Responsible)
		if e.NeedsCorrection() {
			subject = fmt.Sprintf("CAF request #%d - correction required", r.ID)
			view.Heading = "Correction required"
			view.Intro = fmt.Sprintf("%s asked for corrections before approving your request.", by)
			view.Link, view.LinkLabel = link, "Edit request"
		} else {
			subject = fmt.Sprintf("CAF request #%d - rejected", r.ID)
			view.Heading = "Request rejected"
			view.Intro = fmt.Sprintf("Your request was rejected by %s.", by)
		}

	default:
		return port.Message{}, fmt.Errorf("unsupported event type %q", evt.Type())
	}

	html, err := renderHTML(view)
	if err != nil {
		return port.Message{}, err
	}

	return port.Message{
		To:      to,
		Subject: subject,
		HTML:    html,
		Text:    renderText(view),
		Link:    view.Link,
	}, nil
}

func requestDetails(r entity.Request) []detail {
	return []detail{
		{Label: "Contract type", Value: r.Fields.ContractType},
		{Label: "Requested by", Value: r.RequestingActor},
		{Label: "Responsible", Value: r.Fields.Responsible},
		{Label: "Client", Value: r.Fields.Client},
		{Label: "Building", Value: r.Fields.Building},
		{Label: "Supplier", Value: r.Fields.Supplier},
	}
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
