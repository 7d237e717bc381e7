// Package models defines the EDI exchange entities shared by the exchange feature.
//
// # Entities
//
//   - Backend: storage endpoint plus the six remote directories ({input,output} x {pending,done,error}).
//   - ExchangeType: per-backend configuration (code, direction, ack requirement, filename pattern).
//   - Record: one exchanged file, its payload, acknowledgement, error and lifecycle state.
//   - Message: audit trail entry attached to the business entity a record points at.
//
// # States
//
// Record states form a flat enumeration. Apart from "new", every state is prefixed by the
// record direction ("input_*" or "output_*"). Record.Validate and the gorm BeforeSave hook
// reject any write that breaks this rule.
//
// # Remote paths
//
// Backend.RemotePath maps (direction, remote state, filename) to a POSIX path understood by
// the storage gateways.
package models
