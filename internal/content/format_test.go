package content

import "testing"

func TestHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "<p><em>This section is empty.</em></p>"},
		{"whitespace", " \n\n \n", "<p><em>This section is empty.</em></p>"},
		{"paragraphs", "one\n\ntwo", "<p>one</p><p>two</p>"},
		{"line_break", "a\nb", "<p>a<br>b</p>"},
		{"bold_and_italic", "**big** and *small*", "<p><strong>big</strong> and <em>small</em></p>"},
		{"escapes", "<script>x</script> & co", "<p>&lt;script&gt;x&lt;/script&gt; &amp; co</p>"},
		{"crlf", "one\r\n\r\ntwo", "<p>one</p><p>two</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTML(tt.in); got != tt.want {
				t.Errorf("HTML() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlain(t *testing.T) {
	if got := Plain("**Title**\n\nsome *text*"); got != "Title\n\nsome text" {
		t.Errorf("Plain() = %q", got)
	}
	if got := Plain(""); got != EmptyPlaceholder {
		t.Errorf("Plain(\"\") = %q", got)
	}
}

func TestParagraphs(t *testing.T) {
	got := Paragraphs("  a \n\n\n b\nc  ")
	if len(got) != 2 || got[0] != "a" || got[1] != "b\nc" {
		t.Errorf("Paragraphs() = %q", got)
	}
}
