package amqp

import (
	"strings"
	"testing"
)

func TestLedgerEventMessageRoundTrip(t *testing.T) {
	msg := NewLedgerEventMessage(EventTransferCreated, 42, "grp-7")
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := LedgerEventMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.Event != EventTransferCreated || got.TransactionID != 42 || got.TransferID != "grp-7" {
		t.Errorf("round trip = %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp not carried")
	}
}

func TestLedgerEventMessageOmitsEmptyIdentifiers(t *testing.T) {
	msg := NewLedgerEventMessage(EventTransactionDeleted, 7, "")
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if strings.Contains(string(data), "transfer_id") {
		t.Errorf("empty transfer_id serialized: %s", data)
	}
}

func TestLedgerEventMessageFromJSONInvalid(t *testing.T) {
	if _, err := LedgerEventMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}
