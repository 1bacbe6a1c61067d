// Package provider holds the gateway-neutral building blocks of the client.
//
// Params is the nested domain model used for requests and normalized
// responses. Path addresses a value inside it:
//
//	data := provider.Params{}
//	data.Set(provider.Path{"payment", "currency"}, "CZK")
//	v, ok := data.Dig(provider.Path{"payment", "currency"})
//
// ProviderHTTPClient is the Transport that POSTs form bodies. It never follows
// redirects, so the caller sees a 302 and its Location header. Failures to get
// any response back are returned as *TransportError.
//
// CallJournal and CallObserver are the hooks a gateway reports every call to.
// Implementations live in infra/storage, infra/opensearch and infra/metrics.
//
// ValidateConfigFields checks gateway credentials against the ConfigField
// descriptions a gateway publishes through GetRequiredConfig.
package provider
