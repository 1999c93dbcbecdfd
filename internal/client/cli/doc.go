// Package cli provides the interactive TextDrive command-line client.
//
// It wires configuration, the HTTP API client and a REPL. Typical flow:
// prompt for credentials, start a background connectivity watcher, and
// execute user commands against the signed-in account.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
