// Package services bundles the VitaNote service instances.
//
// Build opens the SQLite store and the event publisher from configuration
// and wires users, records, food, medication, statistics and chat services
// on top of them. The HTTP layer and the CLI consume the resulting Registry
// through its accessor methods.
package services
