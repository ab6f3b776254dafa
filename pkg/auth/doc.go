// Package auth provides password hashing, JWT issuance and validation, and
// the echo middleware that authenticates VitaNote API requests.
package auth
