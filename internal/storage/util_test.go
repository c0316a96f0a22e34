package storage

import (
	"errors"
	"testing"
)

func TestParseCursor(t *testing.T) {
	tests := []struct {
		cursor  string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.cursor, func(t *testing.T) {
			got, err := parseCursor(tt.cursor)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCursor) {
					t.Errorf("parseCursor(%q) error = %v, want ErrInvalidCursor", tt.cursor, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("parseCursor(%q) = %d, %v, want %d", tt.cursor, got, err, tt.want)
			}
		})
	}
}

func TestPage(t *testing.T) {
	res := page([]string{"c", "b", "a"}, []int64{3, 2, 1}, 2)
	if !res.HasMore || len(res.Data) != 2 || res.NextCursor != "2" {
		t.Errorf("page() = %+v", res)
	}

	res = page([]string{"a"}, []int64{1}, 2)
	if res.HasMore || res.NextCursor != "" {
		t.Errorf("page() = %+v, want no more", res)
	}
}

func TestPrepareTransaction(t *testing.T) {
	tx := &Transaction{Operation: "donate"}
	if err := prepareTransaction(tx); err != nil {
		t.Fatalf("prepareTransaction() error = %v", err)
	}
	if tx.ID == "" || tx.Status != StatusSubmitted || tx.Value != "0" {
		t.Errorf("prepareTransaction() = %+v", tx)
	}

	bad := &Transaction{Status: "pending"}
	if err := prepareTransaction(bad); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("prepareTransaction() error = %v, want ErrInvalidStatus", err)
	}
}
