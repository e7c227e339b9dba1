package mail

import (
	"strings"
	"testing"
)

func TestBuildMIME_NoAttachments(t *testing.T) {
	msg := &Message{
		From:    "sender@example.com",
		To:      []string{"a@x.com", "b@x.com"},
		Subject: "Review Invitation",
		HTML:    "<p>hello</p>",
	}

	raw, err := buildMIME(msg)
	if err != nil {
		t.Fatalf("buildMIME() error: %v", err)
	}
	text := string(raw)

	for _, want := range []string{
		"From: sender@example.com\r\n",
		"To: a@x.com, b@x.com\r\n",
		"Subject: Review Invitation\r\n",
		"MIME-Version: 1.0\r\n",
		"Content-Type: text/html; charset=UTF-8\r\n",
		"<p>hello</p>",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("message missing %q", want)
		}
	}
	if strings.Contains(text, "multipart/mixed") {
		t.Error("message without attachments should not be multipart")
	}
}

func TestBuildMIME_WithAttachments(t *testing.T) {
	msg := &Message{
		From:    "sender@example.com",
		To:      []string{"a@x.com"},
		Subject: "Review Invitation",
		HTML:    "<p>see attached</p>",
		Attachments: []Attachment{
			{Filename: "plans.pdf", ContentType: "application/pdf", Data: []byte("%PDF-fake")},
			{Filename: "notes.bin", Data: []byte{0x01, 0x02}},
		},
	}

	raw, err := buildMIME(msg)
	if err != nil {
		t.Fatalf("buildMIME() error: %v", err)
	}
	text := string(raw)

	for _, want := range []string{
		"Content-Type: multipart/mixed; boundary=",
		"Content-Type: text/html; charset=UTF-8",
		"<p>see attached</p>",
		`attachment; filename="plans.pdf"`,
		"Content-Type: application/pdf",
		"Content-Transfer-Encoding: base64",
		// Untyped attachments default to octet-stream.
		"Content-Type: application/octet-stream",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("message missing %q", want)
		}
	}
}
