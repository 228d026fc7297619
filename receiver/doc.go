// Package receiver implements the device side of the PutBytes protocol.
//
// A Receiver accepts init, put, commit, install and abort requests, keeps the
// pending objects keyed by cookie, and verifies the length and STM32 CRC of
// every object before it is handed to the install function. It is used to
// exercise senders in tests and by the pbput serve command.
package receiver
