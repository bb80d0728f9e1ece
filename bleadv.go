// Package bleadv implements a Bluetooth Low Energy advertising beacon that
// broadcasts a simulated battery level.
//
// The package only orchestrates advertising: it assembles a legacy (31-byte)
// advertising payload, starts scannable-undirected advertising, and rewrites
// the battery-level service-data byte once per second without stopping the
// advertisement. The BLE protocol itself is an external collaborator behind
// the Stack interface. On Linux the collaborator is the BlueZ daemon; a
// simulated stack is available so the demo and the tests run without a BLE
// controller.
package bleadv
