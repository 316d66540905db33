package outbox

// Event is the domain event envelope written to the outbox table inside the
// owning transaction. The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types emitted by this service.
const (
	EventAppointmentConfirmed = "scheduling.appointment.confirmed.v1"
	EventAppointmentCancelled = "scheduling.appointment.cancelled.v1"
	EventReminderSent         = "scheduling.reminder.sent.v1"
	EventReminderFailed       = "scheduling.reminder.failed.v1"
)
