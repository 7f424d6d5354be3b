package notify

import (
	"context"

	"github.com/gregdel/pushover"

	"github.com/medpal/assist-api/internal/config"
	"github.com/medpal/assist-api/pkg/logger"
)

// Availability is the notification capability, probed once at startup and
// passed down rather than re-sniffed per send.
type Availability int

const (
	Available Availability = iota
	Unavailable
	PermissionDenied
)

func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case PermissionDenied:
		return "permission_denied"
	default:
		return "unavailable"
	}
}

type Message struct {
	Title string
	Body  string
}

// Notifier delivers a reminder notification to a device. Implementations
// that cannot deliver fall back to a blocking alert surfaced through the
// service log.
type Notifier interface {
	Availability() Availability
	Push(ctx context.Context, deviceToken string, msg Message) error
}

// Dispatcher routes to pushover when the capability is available and the
// recipient has a device token, and to the alert fallback otherwise.
type Dispatcher struct {
	availability Availability
	app          *pushover.Pushover
	logger       *logger.Logger
}

// Detect resolves the notification capability from configuration:
// disabled means the operator denied the channel, a missing API token
// means the channel is unavailable.
func Detect(cfg config.PushoverConfig, logger *logger.Logger) *Dispatcher {
	d := &Dispatcher{logger: logger}

	switch {
	case !cfg.Enabled:
		d.availability = PermissionDenied
	case cfg.APIToken == "":
		d.availability = Unavailable
	default:
		d.availability = Available
		d.app = pushover.New(cfg.APIToken)
	}

	logger.Info("notification capability resolved", "availability", d.availability.String())
	return d
}

func (d *Dispatcher) Availability() Availability {
	return d.availability
}

func (d *Dispatcher) Push(ctx context.Context, deviceToken string, msg Message) error {
	if d.availability != Available || deviceToken == "" {
		d.alert(msg)
		return nil
	}

	message := pushover.NewMessageWithTitle(msg.Body, msg.Title)
	recipient := pushover.NewRecipient(deviceToken)

	if _, err := d.app.SendMessage(message, recipient); err != nil {
		d.alert(msg)
		return err
	}
	return nil
}

// alert is the always-available fallback channel.
func (d *Dispatcher) alert(msg Message) {
	d.logger.Warn(msg.Title, "alert", msg.Body)
}
