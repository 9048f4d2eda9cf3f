package service

import "github.com/modoocon/modoocon/internal/event/domain"

// Compiled-in fallbacks used when an event carries no override row.
// Placeholders follow the mailer's allow-listed {{ name }} form.
var defaultTemplates = map[string]domain.RenderedTemplate{
	domain.TemplateRegistrationConfirmed: {
		Kind:    domain.TemplateRegistrationConfirmed,
		Subject: "[{{ event_name }}] Registration confirmed",
		Body: "Hello {{ user_name }},\n\n" +
			"Your registration for {{ event_name }} is confirmed.\n" +
			"Order ID: {{ order_id }}\n\n" +
			"See you there.",
	},
	domain.TemplatePaymentReceipt: {
		Kind:    domain.TemplatePaymentReceipt,
		Subject: "[{{ event_name }}] Payment receipt",
		Body: "Hello {{ user_name }},\n\n" +
			"We received your payment of {{ amount }} for {{ event_name }}.\n" +
			"Order ID: {{ order_id }}\n\n" +
			"Your receipt is attached.",
	},
	domain.TemplateDeletionWarning: {
		Kind:    domain.TemplateDeletionWarning,
		Subject: "Your account is scheduled for deletion",
		Body: "Hello {{ user_name }},\n\n" +
			"Your account has been inactive for a long time and will be deleted on {{ deadline_date }}.\n" +
			"Sign in before then to keep it.",
	},
}

// DefaultTemplate returns the compiled-in template for kind. Used directly
// for account-level mail that has no event to resolve an override from.
func DefaultTemplate(kind string) (domain.RenderedTemplate, bool) {
	tmpl, ok := defaultTemplates[kind]
	return tmpl, ok
}

func isTemplateKind(kind string) bool {
	_, ok := defaultTemplates[kind]
	return ok
}
