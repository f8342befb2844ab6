// ABOUTME: Undertone wire protocol package
// ABOUTME: Defines envelope, handshake and job event message types
// Package protocol defines the Undertone wire protocol.
//
// Servers and clients exchange JSON messages wrapped in the Message
// envelope over a WebSocket, and transfer audio over REST endpoints.
// Job events let subscribers follow encode/decode work as it runs.
//
// Example:
//
//	msg := protocol.Message{
//	    Type:    protocol.TypeClientHello,
//	    Payload: protocol.ClientHello{ClientID: id, Name: "workbench", Version: protocol.ProtocolVersion},
//	}
package protocol
