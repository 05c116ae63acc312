package models

import "time"

// EventKind names a pipeline outcome.
type EventKind string

const (
	EventUploadSucceeded   EventKind = "upload.succeeded"
	EventUploadFailed      EventKind = "upload.failed"
	EventAnchorSucceeded   EventKind = "anchor.succeeded"
	EventAnchorFailed      EventKind = "anchor.failed"
	EventRetrieveSucceeded EventKind = "retrieve.succeeded"
	EventRetrieveFailed    EventKind = "retrieve.failed"
	EventWalletConnected   EventKind = "wallet.connected"
	EventWalletDisconnect  EventKind = "wallet.disconnected"
)

// Event is one audit log line.
type Event struct {
	ID        string
	Kind      EventKind
	Address   string
	StorageID string
	Detail    string
	At        time.Time
}
