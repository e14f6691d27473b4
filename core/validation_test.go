package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateItem(t *testing.T) {
	tests := []struct {
		name    string
		item    *Item
		wantErr error
	}{
		{
			name:    "valid item",
			item:    &Item{ID: "note:1", Text: "hello"},
			wantErr: nil,
		},
		{
			name:    "valid item with empty text",
			item:    &Item{ID: "note:1"},
			wantErr: nil,
		},
		{
			name:    "nil item",
			item:    nil,
			wantErr: ErrInvalidItem,
		},
		{
			name:    "empty ID",
			item:    &Item{Text: "orphan"},
			wantErr: ErrEmptyItemID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItem(tt.item)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateItem() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateItem() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidItem) {
				t.Errorf("ValidateItem() error should wrap ErrInvalidItem, got %v", err)
			}
		})
	}
}

func TestValidateWindow(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		window  RunWindow
		wantErr bool
	}{
		{"since before triggered", RunWindow{Since: now.Add(-time.Hour), TriggeredAt: now}, false},
		{"since equals triggered", RunWindow{Since: now, TriggeredAt: now}, false},
		{"since after triggered", RunWindow{Since: now.Add(time.Minute), TriggeredAt: now}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWindow(tt.window)
			if tt.wantErr && !errors.Is(err, ErrInvalidWindow) {
				t.Errorf("ValidateWindow() error = %v, want ErrInvalidWindow", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateWindow() unexpected error = %v", err)
			}
		})
	}
}

func TestValidateEmbeddingBatch(t *testing.T) {
	chunk := Chunk{{ID: "a"}, {ID: "b"}}
	vec := []float32{1, 0}

	tests := []struct {
		name    string
		batch   EmbeddingBatch
		wantErr bool
	}{
		{
			name: "matching batch",
			batch: EmbeddingBatch{
				{Item: Item{ID: "a"}, Vector: vec},
				{Item: Item{ID: "b"}, Vector: vec},
			},
		},
		{
			name:    "dropped item",
			batch:   EmbeddingBatch{{Item: Item{ID: "a"}, Vector: vec}},
			wantErr: true,
		},
		{
			name: "reordered items",
			batch: EmbeddingBatch{
				{Item: Item{ID: "b"}, Vector: vec},
				{Item: Item{ID: "a"}, Vector: vec},
			},
			wantErr: true,
		},
		{
			name: "missing vector",
			batch: EmbeddingBatch{
				{Item: Item{ID: "a"}, Vector: vec},
				{Item: Item{ID: "b"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmbeddingBatch(chunk, tt.batch)
			if tt.wantErr && !errors.Is(err, ErrMismatchedBatch) {
				t.Errorf("ValidateEmbeddingBatch() error = %v, want ErrMismatchedBatch", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateEmbeddingBatch() unexpected error = %v", err)
			}
		})
	}
}
