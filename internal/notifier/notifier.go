// Package notifier turns domain events from the bus into emails.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"coachgest-backend/internal/events"
	"coachgest-backend/internal/models"
	"coachgest-backend/pkg/mailer"
	"coachgest-backend/pkg/messagequeue"
)

// RoutingKeys lists the events the notifier queue is bound to.
var RoutingKeys = []string{
	events.TypeCoachRegistered,
	events.TypeSubcoachCreated,
	events.TypeCoacheeCreated,
	events.TypeSubscriptionChanged,
	events.TypeStripeConnected,
}

// Notifier renders one email per event and hands it to the mailer.
type Notifier struct {
	mailer   mailer.Sender
	loginURL string
	logger   *zap.Logger
}

// New creates a Notifier. clientURL is the SPA origin used for the login link.
func New(m mailer.Sender, clientURL string, logger *zap.Logger) *Notifier {
	return &Notifier{
		mailer:   m,
		loginURL: strings.TrimRight(clientURL, "/") + "/login",
		logger:   logger,
	}
}

// Handle matches messagequeue.Handler. Malformed messages are rejected; events without a
// recipient are acknowledged and skipped. Temporary mail failures are marked for retry.
func (n *Notifier) Handle(_ context.Context, routingKey string, body []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		env.Type = routingKey
	}

	msg, ok, err := n.render(env)
	if err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	if !ok {
		n.logger.Debug("No email for event", zap.String("type", env.Type), zap.String("id", env.ID))
		return nil
	}
	if err := n.mailer.Send(msg); err != nil {
		if mailer.IsPermanent(err) {
			return err
		}
		return messagequeue.Retry(err)
	}
	n.logger.Info("Notification sent",
		zap.String("type", env.Type),
		zap.String("id", env.ID),
		zap.String("to", msg.To),
	)
	return nil
}

func (n *Notifier) render(env events.Envelope) (mailer.Message, bool, error) {
	switch env.Type {
	case events.TypeCoachRegistered:
		var p events.CoachRegistered
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return mailer.Message{}, false, err
		}
		return mailer.Message{
			To:      p.Email,
			Subject: "Benvenuto su CoachGest",
			Body: fmt.Sprintf("Ciao %s,\n\nil tuo account coach è attivo. Il periodo di prova gratuito "+
				"termina il %s.\n\nAccedi da %s\n", p.Nome, p.TrialEndsAt.Format("02/01/2006"), n.loginURL),
		}, p.Email != "", nil

	case events.TypeSubcoachCreated:
		var p events.SubcoachCreated
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return mailer.Message{}, false, err
		}
		return mailer.Message{
			To:      p.Email,
			Subject: "Sei stato aggiunto a un team CoachGest",
			Body: fmt.Sprintf("Ciao %s,\n\n%s ti ha aggiunto come subcoach del suo team. "+
				"Usa le credenziali che ti ha comunicato per accedere da %s\n", p.Nome, p.CoachName, n.loginURL),
		}, p.Email != "", nil

	case events.TypeCoacheeCreated:
		var p events.CoacheeCreated
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return mailer.Message{}, false, err
		}
		return mailer.Message{
			To:      p.Email,
			Subject: "Benvenuto nel tuo percorso di coaching",
			Body:    fmt.Sprintf("Ciao %s,\n\n%s ti ha registrato come coachee su CoachGest.\n", p.Nome, p.CoachName),
		}, p.Email != "", nil

	case events.TypeSubscriptionChanged:
		var p events.SubscriptionPlanChanged
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return mailer.Message{}, false, err
		}
		return mailer.Message{
			To:      p.Email,
			Subject: "Il tuo abbonamento è stato aggiornato",
			Body: fmt.Sprintf("Il tuo piano è passato da %s a %s.\n\nNuovi limiti: %d subcoach, %d coachee.\n",
				planName(p.From), planName(p.To), p.MaxSubcoach, p.MaxCoachee),
		}, p.Email != "", nil
	}
	// stripe.connected and unknown types have no recipient.
	return mailer.Message{}, false, nil
}

func planName(tier models.Tier) string {
	s := string(tier)
	if s == "" {
		return "-"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
