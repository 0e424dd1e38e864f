// Package protocol is the object model of the XBee API as seen by the host.
//
// Inbound messages arrive as FieldMaps and are turned into Frames by the
// decoder registered for their "id" tag in Frames. Command responses are
// further specialized by command name through Commands. Outbound commands
// are built with NewCommand or a specialized constructor, each taking the
// next request id, and are handed to a Sender as a Request.
package protocol
