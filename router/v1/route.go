package v1

import (
	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/gocomgate/handler"
)

// Routes registers the authenticated API routes
func Routes(r chi.Router, payments *handler.PaymentHandler, journal *handler.JournalHandler) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/", payments.CreatePayment)
		r.Get("/{transID}", payments.GetPaymentStatus)
		r.Delete("/{transID}", payments.CancelPayment)
		r.Post("/{transID}/refund", payments.RefundPayment)

		// Preauthorized payments
		r.Post("/{transID}/capture", payments.CapturePayment)
		r.Post("/{transID}/release", payments.ReleasePayment)
	})

	r.Get("/methods", payments.ListMethods)
	r.Get("/transfers", payments.ListTransfers)

	r.Route("/calls", func(r chi.Router) {
		r.Get("/", journal.ListCalls)
		r.Get("/stats", journal.GetStats)
		r.Get("/failures", journal.GetFailures)
		r.Get("/transactions/{transID}", journal.GetTransactionCalls)
	})
}
