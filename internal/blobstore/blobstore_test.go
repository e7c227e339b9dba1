package blobstore

import (
	"errors"
	"testing"
)

func TestExtractRef(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{
			name: "bare reference",
			text: "1a2b3c4d5e6f7g8h9i0j1k2l3m4n5o",
			want: "1a2b3c4d5e6f7g8h9i0j1k2l3m4n5o",
		},
		{
			name: "reference inside sharing url",
			text: "https://drive.example.com/file/d/1a2b3c4d5e6f7g8h9i0j1k2l3m4n5o/view?usp=sharing",
			want: "1a2b3c4d5e6f7g8h9i0j1k2l3m4n5o",
		},
		{
			name: "reference with hyphens and underscores",
			text: "see doc_ref-AAAA-bbbb_cccc-DDDD-eeee here",
			want: "doc_ref-AAAA-bbbb_cccc-DDDD-eeee",
		},
		{
			name:    "too short",
			text:    "shortid-1234",
			wantErr: true,
		},
		{
			name:    "empty",
			text:    "",
			wantErr: true,
		},
		{
			name:    "ordinary prose",
			text:    "please attach the usual cover sheet",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractRef(tt.text)
			if tt.wantErr {
				var invalid *InvalidReferenceError
				if !errors.As(err, &invalid) {
					t.Fatalf("ExtractRef(%q) error = %v, want *InvalidReferenceError", tt.text, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractRef(%q) error: %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("ExtractRef(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
