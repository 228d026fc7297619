// Package putbytes pushes a binary object (firmware, resources, an application
// binary, a worker, ...) to a device and installs it.
//
// A transfer is a strictly ordered handshake over a request/response Link:
//
//  1. prepare: announce size, kind and destination; the device answers with a cookie.
//  2. put:     stream the object in chunks of at most 2000 bytes, one outstanding
//     chunk at a time, every chunk acknowledged before the next is sent.
//  3. commit:  send the STM32 CRC of the whole object for the device to verify.
//  4. install: ask the device to install the committed object.
//
// Every request carries the cookie from step 1. A negative acknowledgment at any
// step ends the session: nothing else is sent, no abort is issued and the session
// cannot be resumed. Callers decide whether to start over with a new Session.
//
// # Session states
//
//	Idle -> Prepared -> Sending -> Committed -> Installed
//	  \________\__________\___________\-------> Failed
//
// Session.Send drives all phases; Prepare, Transfer and Install run them one at a
// time and reject calls made out of order with ErrInvalidTransition.
//
// # Errors
//
// Phase failures are returned as *PhaseError. Use IsRejected to detect a device
// NACK, IsTransport for link failures and FailedPhase to learn which step failed.
package putbytes
