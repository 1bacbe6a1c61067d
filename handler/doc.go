// Package handler provides the HTTP handlers of the Comgate payment service.
//
// The handlers bridge the HTTP layer with the Comgate gateway client in
// provider/comgate. Every response uses the JSON envelope of infra/response:
//
//	{
//	  "success": true,
//	  "message": "Payment created",
//	  "data": {
//	    "http_code": 302,
//	    "outcome": "success",
//	    "redirect_to": "https://payments.comgate.cz/client/instructions/index?id=AB12-CD34-EF56"
//	  }
//	}
//
// # Payment Handler
//
// PaymentHandler exposes the gateway operations as a JSON API:
//
//	paymentHandler := handler.NewPaymentHandler(gateway, validator.New())
//
//	r.Post("/v1/payments", paymentHandler.CreatePayment)
//	r.Get("/v1/payments/{transID}", paymentHandler.GetPaymentStatus)
//	r.Delete("/v1/payments/{transID}", paymentHandler.CancelPayment)
//	r.Post("/v1/payments/{transID}/refund", paymentHandler.RefundPayment)
//	r.Post("/v1/payments/{transID}/capture", paymentHandler.CapturePayment)
//	r.Post("/v1/payments/{transID}/release", paymentHandler.ReleasePayment)
//	r.Get("/v1/methods", paymentHandler.ListMethods)
//	r.Get("/v1/transfers", paymentHandler.ListTransfers)
//
// Gateway results map onto HTTP statuses:
//
//	success           200
//	missing fields    400
//	api error         422 (the gateway code is in data.errors.api)
//	connection error  502
//	decode failure    502
//
// # Callback Handler
//
// CallbackHandler receives the status notifications the gateway pushes to the
// e-shop. A notification is decoded, its merchant id and secret are compared
// with the configured credentials, and the normalized result is passed to an
// optional PaymentListener. A listener error answers 500 so that the gateway
// retries the notification.
//
// # Journal Handler
//
// JournalHandler serves read queries over the call journal: latest calls,
// calls of one transaction, recent failures and statistics. Queries the
// configured journal cannot answer return 501.
//
// # Health Handler
//
// HealthHandler reports gateway readiness and journal reachability. An
// uninitialized gateway answers 503, an unreachable journal marks the service
// as degraded.
package handler
