// Package netup joins the wireless network named in the device settings.
//
// Bring-up is delegated to NetworkManager's nmcli. A dedicated "alarm"
// connection profile is recreated on every start with any static
// addressing already written into it, then activated with a wait of the
// configured timeout.
package netup
