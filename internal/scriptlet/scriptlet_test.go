package scriptlet

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{
			name:     "plain text passes through",
			template: "<p>hello</p>",
			vars:     nil,
			want:     "<p>hello</p>",
		},
		{
			name:     "escaped interpolation",
			template: "<p><?= n ?></p>",
			vars:     map[string]string{"n": "5"},
			want:     "<p>5</p>",
		},
		{
			name:     "escaped interpolation escapes html",
			template: "<?= v ?>",
			vars:     map[string]string{"v": `<b>&"bold"</b>`},
			want:     "&lt;b&gt;&amp;&#34;bold&#34;&lt;/b&gt;",
		},
		{
			name:     "raw interpolation keeps html",
			template: "<?!= v ?>",
			vars:     map[string]string{"v": "<b>bold</b>"},
			want:     "<b>bold</b>",
		},
		{
			name:     "missing variable renders empty",
			template: "a<?= missing ?>b",
			vars:     map[string]string{},
			want:     "ab",
		},
		{
			name:     "nil bindings render empty",
			template: "a<?= missing ?>b",
			vars:     nil,
			want:     "ab",
		},
		{
			name:     "if block included when truthy",
			template: "<? if (show) { ?>visible<? } ?>",
			vars:     map[string]string{"show": "yes"},
			want:     "visible",
		},
		{
			name:     "if block skipped when falsy",
			template: "<? if (show) { ?>visible<? } ?>",
			vars:     map[string]string{"show": ""},
			want:     "",
		},
		{
			name:     "if block skipped when unbound",
			template: "<? if (show) { ?>visible<? } ?>",
			vars:     map[string]string{},
			want:     "",
		},
		{
			name:     "false string is falsy",
			template: "<? if (show) { ?>visible<? } ?>",
			vars:     map[string]string{"show": "FALSE"},
			want:     "",
		},
		{
			name:     "else branch",
			template: "<? if (x) { ?>yes<? } else { ?>no<? } ?>",
			vars:     map[string]string{"x": "0"},
			want:     "no",
		},
		{
			name:     "if without parens",
			template: "<? if x { ?>yes<? } ?>",
			vars:     map[string]string{"x": "1"},
			want:     "yes",
		},
		{
			name:     "nested if blocks",
			template: "<? if (a) { ?>[<? if (b) { ?>inner<? } ?>]<? } ?>",
			vars:     map[string]string{"a": "1", "b": "1"},
			want:     "[inner]",
		},
		{
			name:     "interpolation inside if block",
			template: "<? if (name) { ?>Hello <?= name ?>!<? } ?>",
			vars:     map[string]string{"name": "Alice"},
			want:     "Hello Alice!",
		},
		{
			name:     "literal text with no scriptlets at all",
			template: "Routine Review Notification",
			vars:     map[string]string{"unused": "x"},
			want:     "Routine Review Notification",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.template, tt.vars)
			if err != nil {
				t.Fatalf("Render(%q) error: %v", tt.template, err)
			}
			if got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestRender_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		template string
		wantErr  string
	}{
		{
			name:     "unclosed tag",
			template: "<?= n",
			wantErr:  "unclosed scriptlet tag",
		},
		{
			name:     "unclosed if block",
			template: "<? if (x) { ?>text",
			wantErr:  "unclosed if block",
		},
		{
			name:     "unmatched closing brace",
			template: "text<? } ?>",
			wantErr:  "unmatched closing brace",
		},
		{
			name:     "else without if",
			template: "<? } else { ?>",
			wantErr:  "else without matching if",
		},
		{
			name:     "unsupported statement",
			template: "<? while (x) { ?>text<? } ?>",
			wantErr:  "unsupported scriptlet statement",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.template, nil)
			if err == nil {
				t.Fatalf("Render(%q) expected error containing %q, got nil", tt.template, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Render(%q) error = %v, want containing %q", tt.template, err, tt.wantErr)
			}
		})
	}
}
