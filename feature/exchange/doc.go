// Package exchange wires the EDI exchange feature: the record service, its HTTP routes
// and declarative seeding of backends and exchange types.
//
// # Routes
//
//	POST /exchange/sync?input=&output=       run the batch sweeps
//	POST /exchange/backends/:id/records      create a record (type, model, res_id, filename, file)
//	GET  /exchange/records?model=&res_id=    records attached to a business entity
//	GET  /exchange/records/:id               one record
//	POST /exchange/records/:id/send          send an output record
//	POST /exchange/records/:id/check         check_output or check_input by direction
//	POST /exchange/records/:id/process       import a received input record
//	POST /exchange/records/:id/generate      render an output payload (?store=true saves it)
//	GET  /exchange/messages?model=&res_id=   audit trail of a business entity
//
// Storage failures during send or check never surface as HTTP errors: they are recorded
// on the record and reported in its state.
package exchange
