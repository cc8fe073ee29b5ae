package task

import "testing"

func TestParseDescriptionNoAttachments(t *testing.T) {
	text, atts := ParseDescription("just some notes\nwith two lines")
	if text != "just some notes\nwith two lines" {
		t.Fatalf("text = %q", text)
	}
	if len(atts) != 0 {
		t.Fatalf("expected no attachments, got %v", atts)
	}
}

func TestParseDescriptionWithAttachments(t *testing.T) {
	desc := "write the report\n**Attachment:** [draft.pdf](https://files.example/draft.pdf)\n**Attachment:** [chart.png](https://files.example/chart.png)"

	text, atts := ParseDescription(desc)
	if text != "write the report" {
		t.Fatalf("text = %q", text)
	}
	if len(atts) != 2 {
		t.Fatalf("attachments = %d, want 2", len(atts))
	}
	if atts[0].Name != "draft.pdf" || atts[0].Kind != "file" {
		t.Fatalf("first attachment: %+v", atts[0])
	}
	if atts[1].Name != "chart.png" || atts[1].Kind != "image" {
		t.Fatalf("second attachment: %+v", atts[1])
	}
	if atts[1].URL != "https://files.example/chart.png" {
		t.Fatalf("url = %q", atts[1].URL)
	}
}

func TestDescriptionRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"plain text only",
		"line one\nline two",
		"**Attachment:** [a.txt](https://x/a.txt)",
		"body\n**Attachment:** [a.txt](https://x/a.txt)",
		"body\n\n**Attachment:** [a.jpeg](https://x/a.jpeg?token=1)\n**Attachment:** [b](https://x/b)",
	}
	for _, desc := range cases {
		text, atts := ParseDescription(desc)
		if got := SerializeDescription(text, atts); got != desc {
			t.Fatalf("round trip of %q gave %q", desc, got)
		}
	}
}

func TestAttachmentKindFromQueryURL(t *testing.T) {
	_, atts := ParseDescription("**Attachment:** [pic](https://x/p.webp?sig=abc)")
	if len(atts) != 1 || atts[0].Kind != "image" {
		t.Fatalf("expected image kind: %+v", atts)
	}
}

func TestSerializeDescriptionAppends(t *testing.T) {
	got := SerializeDescription("notes", []Attachment{{Name: "f", URL: "https://x/f.bin"}})
	want := "notes\n**Attachment:** [f](https://x/f.bin)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
