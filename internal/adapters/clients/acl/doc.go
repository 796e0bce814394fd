// Package acl is the anti-corruption layer between the remote quote server
// and the domain.
//
// The remote server speaks in generic "post" records; this package is the
// only place that knows their shape. It translates records to
// [domain.Quote], maps HTTP and client failures to domain errors
// ([MapHTTPError]) and keeps external DTOs from leaking past the adapter.
//
// New remote integrations embed [BaseAdapter] and supply a [Translator].
package acl
