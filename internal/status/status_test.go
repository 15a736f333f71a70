package status

import "testing"

func TestStatus_Label(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{NotTranslated, "Not Translated"},
		{Idle, "Not Translated"},
		{Processing, "Processing"},
		{Cached, "Translated"},
		{CompletedEmpty, "Empty Section"},
		{ErrorContextLimit, "Error (Too Large)"},
		{ErrorExtraction, "Error (Extract)"},
		{ErrorNetwork, "Error (Network)"},
		{ErrorStart(503), "Error (Start 503)"},
		{Status("queued_remote"), "Queued remote"},
		{Status("error"), "Error"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatus_Predicates(t *testing.T) {
	tests := []struct {
		status      Status
		ready       bool
		isErr       bool
		canRetry    bool
		unprocessed bool
	}{
		{NotTranslated, false, false, false, true},
		{Idle, false, false, false, true},
		{Processing, false, false, false, false},
		{Translated, true, false, true, false},
		{CompletedEmpty, true, false, true, false},
		{Summarized, true, false, true, false},
		{ErrorTranslation, false, true, true, false},
		{ErrorStart(404), false, true, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsReady(); got != tt.ready {
				t.Errorf("IsReady() = %v, want %v", got, tt.ready)
			}
			if got := tt.status.IsError(); got != tt.isErr {
				t.Errorf("IsError() = %v, want %v", got, tt.isErr)
			}
			if got := tt.status.CanRetry(); got != tt.canRetry {
				t.Errorf("CanRetry() = %v, want %v", got, tt.canRetry)
			}
			if got := tt.status.IsUnprocessed(); got != tt.unprocessed {
				t.Errorf("IsUnprocessed() = %v, want %v", got, tt.unprocessed)
			}
		})
	}
}

func TestParse(t *testing.T) {
	if got := Parse(""); got != NotTranslated {
		t.Errorf("Parse(\"\") = %q, want %q", got, NotTranslated)
	}
	if got := Parse(" translated "); got != Translated {
		t.Errorf("Parse() = %q, want %q", got, Translated)
	}
}

func TestStartErrorCode(t *testing.T) {
	code, ok := ErrorStart(429).StartErrorCode()
	if !ok || code != 429 {
		t.Errorf("StartErrorCode() = %d, %v; want 429, true", code, ok)
	}
	if _, ok := ErrorTranslation.StartErrorCode(); ok {
		t.Error("StartErrorCode() should not match error_translation")
	}
}

func TestShortModelName(t *testing.T) {
	tests := map[string]string{
		"meta-llama/llama-4-maverick:free": "llama-4-maverick:free",
		"models/gemini-1.5-flash":          "gemini-1.5-flash",
		"a/b/c":                            "c",
		"plain":                            "plain",
	}
	for in, want := range tests {
		if got := ShortModelName(in); got != want {
			t.Errorf("ShortModelName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBook_IsTerminal(t *testing.T) {
	if !BookComplete.IsTerminal() || !BookCompleteWithErrors.IsTerminal() {
		t.Error("complete states should be terminal")
	}
	if BookProcessing.IsTerminal() || BookIdle.IsTerminal() {
		t.Error("processing and idle should not be terminal")
	}
}

func TestParseOperation(t *testing.T) {
	if ParseOperation("summarize") != OpSummarize {
		t.Error("expected summarize")
	}
	if ParseOperation("bogus") != OpTranslate {
		t.Error("unknown operation should fall back to translate")
	}
	if got := OpAnalyze.RetryCaption(); got != "Analyze again" {
		t.Errorf("RetryCaption() = %q", got)
	}
}

func TestHumanize(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"", ""},
		{"error", "Error"},
		{"queued_for_review", "Queued for review"},
		{"élaboré", "Élaboré"},
		{"über_fertig", "Über fertig"},
	}
	for _, tt := range tests {
		if got := Humanize(tt.raw); got != tt.want {
			t.Errorf("Humanize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
