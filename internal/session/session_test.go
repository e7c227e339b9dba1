package session

import "testing"

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "plain id",
			text:   "Join session 123-456-789 today",
			want:   "123-456-789",
			wantOK: true,
		},
		{
			name:   "id at start of text",
			text:   "123-456-789 is the session",
			want:   "123-456-789",
			wantOK: true,
		},
		{
			name:   "id at end of text",
			text:   "session: 999-888-777",
			want:   "999-888-777",
			wantOK: true,
		},
		{
			name:   "id inside invite url",
			text:   "https://studio.example.com/join?id=321-654-987&x=1",
			want:   "321-654-987",
			wantOK: true,
		},
		{
			name:   "no id",
			text:   "please join the review session",
			wantOK: false,
		},
		{
			name:   "empty text",
			text:   "",
			wantOK: false,
		},
		{
			name:   "embedded in longer digit run rejected",
			text:   "ref 9123-456-789 is not a session",
			wantOK: false,
		},
		{
			name:   "trailing digits reject match",
			text:   "ref 123-456-7890",
			wantOK: false,
		},
		{
			name:   "longer hyphen run rejected",
			text:   "part 123-456-789-012",
			wantOK: false,
		},
		{
			name:   "two distinct ids returns first",
			text:   "use 111-222-333 or 444-555-666",
			want:   "111-222-333",
			wantOK: true,
		},
		{
			name:   "same id twice is not a conflict",
			text:   "111-222-333 (repeat: 111-222-333)",
			want:   "111-222-333",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("Extract(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Extract(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
