package google

import (
	"context"
	"strings"
	"testing"
)

func TestNew_RequiresSpreadsheetID(t *testing.T) {
	tests := []struct {
		name          string
		spreadsheetID string
	}{
		{name: "empty", spreadsheetID: ""},
		{name: "whitespace only", spreadsheetID: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.spreadsheetID, "Ledger")
			if err == nil {
				t.Fatal("New() expected error for missing spreadsheet id")
			}
			if !strings.Contains(err.Error(), "spreadsheet id") {
				t.Errorf("New() error = %v, want spreadsheet id complaint", err)
			}
		})
	}
}
