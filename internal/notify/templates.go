package notify

import (
	"fmt"

	"github.com/hopono/scheduling/internal/model"
	"github.com/hopono/scheduling/internal/timeutil"
)

// Templates renders reminder message bodies. Kept free of provider concerns
// so message wording is testable without a gateway.
type Templates struct {
	businessName string
}

func NewTemplates(businessName string) *Templates {
	if businessName == "" {
		businessName = "Hopono"
	}
	return &Templates{businessName: businessName}
}

func (t *Templates) ReminderSMS(c model.ReminderCandidate) string {
	return fmt.Sprintf("%s: reminder for your %s appointment on %s at %s. Reply to reschedule.",
		t.businessName, c.ServiceName, c.Date.Format("Jan 2"), timeutil.FormatClock(c.StartMin))
}

func (t *Templates) ReminderEmail(c model.ReminderCandidate) (subject, body string) {
	subject = fmt.Sprintf("Reminder: %s on %s", c.ServiceName, c.Date.Format("Monday, Jan 2"))
	body = fmt.Sprintf(
		"Hi %s,\n\nThis is a reminder of your upcoming appointment.\n\nService: %s\nDate: %s\nTime: %s\n\nSee you soon,\n%s\n",
		c.ClientName, c.ServiceName, c.Date.Format("Monday, January 2, 2006"),
		timeutil.FormatClock(c.StartMin), t.businessName)
	return subject, body
}
