// Package transport sends raw requests to the search backend.
//
// The Transport interface is the only network boundary in the module. The
// searcher builds Request values (URI, method, headers, raw body) and parses
// the returned bytes itself. HTTPTransport is the production implementation;
// tests substitute a Func.
//
// AuthHeaders resolves credentials into the header map sent with every
// request. Classify helpers (IsTimeout, IsConnectionReset, IsProtocolError)
// recognize the transport failures that are reported as degraded search-limit
// results instead of hard errors.
package transport
