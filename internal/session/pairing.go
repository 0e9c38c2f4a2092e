package session

import (
	"bytes"
	"strings"

	"github.com/mdp/qrterminal/v3"
)

// PairingURL is what the phone opens to start producing into a session.
func PairingURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/phone/" + id
}

// PairingQR renders the pairing URL as a UTF-8 half-block QR code, suitable
// for terminals and monospace UI panes.
func PairingQR(url string) string {
	var buf bytes.Buffer
	qrterminal.GenerateHalfBlock(url, qrterminal.L, &buf)
	return buf.String()
}
