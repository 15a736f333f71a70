package session

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/bookwatch/internal/status"
	"github.com/jackzampolin/bookwatch/internal/testutil"
	"github.com/jackzampolin/bookwatch/internal/view"
)

func TestLoadAndDisplay(t *testing.T) {
	tests := []struct {
		name          string
		initial       status.Status
		text          *string
		code          int
		pollTriggered bool
		wantKind      view.ContentKind
		wantMessage   string
		wantStatus    status.Status
		wantStarts    int
		wantFetches   int
		wantErr       bool
	}{
		{
			name:        "text_marks_translated",
			initial:     status.NotTranslated,
			text:        strp("Bonjour"),
			wantKind:    view.ContentText,
			wantStatus:  status.Translated,
			wantFetches: 1,
		},
		{
			name:        "text_keeps_ready_status",
			initial:     status.Summarized,
			text:        strp("Summary"),
			wantKind:    view.ContentText,
			wantStatus:  status.Summarized,
			wantFetches: 1,
		},
		{
			name:        "empty_text_marks_completed_empty",
			initial:     status.Translated,
			text:        strp(""),
			wantKind:    view.ContentText,
			wantStatus:  status.CompletedEmpty,
			wantFetches: 1,
		},
		{
			name:        "not_found_user_starts_job",
			initial:     status.NotTranslated,
			wantKind:    view.ContentPlaceholder,
			wantMessage: MsgProcessingStarted,
			wantStatus:  status.Processing,
			wantStarts:  1,
			wantFetches: 1,
		},
		{
			name:          "not_found_poll_does_not_start",
			initial:       status.Translated,
			pollTriggered: true,
			wantKind:      view.ContentMessage,
			wantMessage:   MsgNotReady,
			wantStatus:    status.Translated,
			wantFetches:   1,
		},
		{
			name:        "server_error_marks_unknown",
			initial:     status.Translated,
			code:        http.StatusInternalServerError,
			wantKind:    view.ContentError,
			wantStatus:  status.ErrorUnknown,
			wantFetches: 1,
			wantErr:     true,
		},
		{
			name:        "already_processing",
			initial:     status.Processing,
			wantKind:    view.ContentPlaceholder,
			wantMessage: MsgAlreadyProcessing,
			wantStatus:  status.Processing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, be := newSession(t)
			c.Board().SetStatus("s1", tt.initial, "")
			if tt.text != nil {
				be.SetTranslation("s1", *tt.text)
			}
			if tt.code != 0 {
				be.SetTranslationCode("s1", tt.code)
			}

			err := c.LoadAndDisplay(context.Background(), "s1", tt.pollTriggered)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			content := c.Board().Content()
			assert.Equal(t, "s1", c.Board().Active())
			assert.Equal(t, tt.wantKind, content.Kind)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, content.Message)
			}
			assert.Equal(t, tt.wantStatus, c.Board().Status("s1"))
			assert.Equal(t, tt.wantStarts, be.Calls(testutil.RouteStartSection), "job starts")
			assert.Equal(t, tt.wantFetches, be.Calls(testutil.RouteTranslation), "content fetches")
		})
	}
}

func TestLoadAndDisplay_NotFoundStartRejected(t *testing.T) {
	c, be := newSession(t)
	be.SetStartCode(http.StatusTooManyRequests)

	err := c.LoadAndDisplay(context.Background(), "s1", false)
	require.Error(t, err)

	assert.Equal(t, status.ErrorStart(429), c.Board().Status("s1"))
	assert.Equal(t, view.ContentError, c.Board().Content().Kind, "start error replaces the placeholder")
	assert.Equal(t, 1, be.Calls(testutil.RouteStartSection))
}

func TestLoadAndDisplay_SendsLanguage(t *testing.T) {
	c, be := newSession(t)
	be.SetTranslation("s 1", "text")

	require.NoError(t, c.LoadAndDisplay(context.Background(), "s 1", false))
	assert.Equal(t, []string{"german"}, be.TranslationLangs())
	assert.Equal(t, 0, be.Calls(testutil.RouteStartSection))
}

func strp(s string) *string { return &s }
