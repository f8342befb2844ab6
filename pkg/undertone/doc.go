// ABOUTME: High-level Undertone library API
// ABOUTME: Provides a simple Client API for most use cases
// Package undertone provides a high-level API for Undertone audio
// steganography servers.
//
// This is the main entry point for most library users, providing:
//   - Client: Submit encode/decode jobs and receive live job events
//   - File helpers: Work directly with WAV files on disk
//
// For lower-level control, see the stego, audio, and protocol packages.
//
// Example:
//
//	client, err := undertone.NewClient(undertone.Config{
//	    ServerAddr: "localhost:8951",
//	    ClientName: "Workbench",
//	})
//	err = client.Connect()
//	result, err := client.EncodeLSBFile(ctx, "carrier.wav", "stego.wav", "meet at dawn")
package undertone
