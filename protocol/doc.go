// Package protocol implements the wire encoding used between a host and a device for
// PutBytes object transfers.
//
// Every packet on the link is a frame:
//
//	[Length(2)][Endpoint(2)][Payload(Length)]
//
// with both header fields big-endian. The endpoint multiplexes services sharing
// the link; PutBytes traffic uses EndpointPutBytes in both directions.
//
// PutBytes requests start with a command byte:
//
//	Init     0x01  size u32, kind u8, bank u8, filename (NUL-terminated)
//	AppInit  0x01  size u32, kind u8 (AppScopeBit set), app install id u32
//	Put      0x02  cookie u32, length u32, data
//	Commit   0x03  cookie u32, crc u32
//	Abort    0x04  cookie u32
//	Install  0x05  cookie u32
//
// Init and AppInit share a command byte; AppScopeBit in the kind byte selects the
// layout. The device answers every request with a Response: result u8 (ACK or NACK)
// followed by a cookie u32.
package protocol
