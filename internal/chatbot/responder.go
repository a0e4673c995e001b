// Package chatbot answers patient messages with canned replies chosen by
// keyword. Groups are tried in a fixed order and the first match wins.
package chatbot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/clinica-jazmin/dental-ledger/internal/catalog"
)

type Intent string

const (
	IntentGreeting Intent = "greeting"
	IntentPrice    Intent = "price"
	IntentHours    Intent = "hours"
	IntentLocation Intent = "location"
	IntentBooking  Intent = "booking"
	IntentThanks   Intent = "thanks"
	IntentUnknown  Intent = "unknown"
)

const (
	greetingReply = "¡Hola! Soy el asistente virtual de la Clínica Dental Jazmín. Puedo ayudarte con precios, horarios, ubicación y citas."
	priceFallback = "Nuestros precios varían según el tratamiento. Escríbenos para darte un presupuesto personalizado."
	hoursReply    = "Atendemos de lunes a viernes de 9:00 a 19:00 y los sábados de 9:00 a 13:00."
	locationReply = "Estamos en Av. Los Jazmines 123, Lima. ¡Te esperamos!"
	bookingReply  = "Puedes reservar tu cita desde el portal de pacientes o escribiéndonos por WhatsApp."
	thanksReply   = "¡Con gusto! Si tienes otra consulta, aquí estoy."
	unknownReply  = "Disculpa, no entendí tu mensaje. Puedes preguntarme por precios, horarios, ubicación o citas."
)

type keywordGroup struct {
	intent   Intent
	keywords []string
}

// groups are checked in this order. Greetings come last so a greeting in
// front of a question does not hide the question.
var groups = []keywordGroup{
	{IntentPrice, []string{"precio", "costo", "cuanto", "cuánto", "tarifa"}},
	{IntentHours, []string{"horario", "hora", "abren", "atienden"}},
	{IntentLocation, []string{"ubicacion", "ubicación", "direccion", "dirección", "donde", "dónde"}},
	{IntentBooking, []string{"cita", "reservar", "agendar", "turno"}},
	{IntentThanks, []string{"gracias", "muchas gracias"}},
	{IntentGreeting, []string{"hola", "buenos dias", "buenos días", "buenas tardes", "buenas noches"}},
}

// ServiceLister returns at most n services in catalog order.
type ServiceLister interface {
	ListFirst(ctx context.Context, n int) ([]catalog.DentalService, error)
}

type Reply struct {
	Intent Intent `json:"intent"`
	Text   string `json:"text"`
}

type Responder struct {
	services   ServiceLister
	priceLimit int
	log        *zap.Logger
}

func NewResponder(services ServiceLister, priceLimit int, log *zap.Logger) *Responder {
	return &Responder{services: services, priceLimit: priceLimit, log: log}
}

// Match returns the intent of the first keyword group found in message.
func Match(message string) Intent {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return IntentUnknown
	}
	for _, g := range groups {
		for _, kw := range g.keywords {
			if strings.Contains(msg, kw) {
				return g.intent
			}
		}
	}
	return IntentUnknown
}

func (r *Responder) Reply(ctx context.Context, message string) (Reply, error) {
	intent := Match(message)

	switch intent {
	case IntentGreeting:
		return Reply{Intent: intent, Text: greetingReply}, nil
	case IntentPrice:
		text, err := r.priceReply(ctx)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Intent: intent, Text: text}, nil
	case IntentHours:
		return Reply{Intent: intent, Text: hoursReply}, nil
	case IntentLocation:
		return Reply{Intent: intent, Text: locationReply}, nil
	case IntentBooking:
		return Reply{Intent: intent, Text: bookingReply}, nil
	case IntentThanks:
		return Reply{Intent: intent, Text: thanksReply}, nil
	}
	return Reply{Intent: IntentUnknown, Text: unknownReply}, nil
}

func (r *Responder) priceReply(ctx context.Context) (string, error) {
	services, err := r.services.ListFirst(ctx, r.priceLimit)
	if err != nil {
		return "", fmt.Errorf("list services for price reply: %w", err)
	}

	var lines []string
	for _, s := range services {
		if s.EstimatedPrice == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: S/ %s", s.Title, s.EstimatedPrice.StringFixed(2)))
	}
	if len(lines) == 0 {
		r.log.Debug("no priced services for chatbot, using fallback")
		return priceFallback, nil
	}

	return "Algunos de nuestros precios:\n" + strings.Join(lines, "\n"), nil
}
