package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aatumaykin/mailbot/internal/attachment"
	"github.com/aatumaykin/mailbot/internal/bus"
	"github.com/aatumaykin/mailbot/internal/constants"
	"github.com/aatumaykin/mailbot/internal/llm"
	"github.com/aatumaykin/mailbot/internal/scheduler"
)

func TestApp_processMessage_TextSchedulesEmail(t *testing.T) {
	provider := llm.NewScriptProvider(stop("GOTOWE: Raport|Raport kwartalny w załączniku|za 2 godziny"))
	h := newHarness(t, createTestConfig(t), WithProvider(provider))

	h.send(t, bus.NewTextMessage(7, 70, "wyślij raport za 2 godziny"))

	if ev := h.event(t); ev.Type != bus.EventTypeProcessingStart || ev.ChatID != 70 {
		t.Errorf("first event = %+v, want processing start for chat 70", ev)
	}
	out := h.reply(t)
	if !strings.HasPrefix(out.Text, "✅ Email zaplanowany pomyślnie!") {
		t.Errorf("reply = %q", out.Text)
	}
	if out.ChatID != 70 || out.Format != bus.FormatPlain {
		t.Errorf("reply routing = chat %d format %q", out.ChatID, out.Format)
	}
	if ev := h.event(t); ev.Type != bus.EventTypeProcessingEnd {
		t.Errorf("second event = %+v, want processing end", ev)
	}

	jobs := h.app.Store().List()
	if len(jobs) != 1 {
		t.Fatalf("store has %d jobs, want 1", len(jobs))
	}
	if jobs[0].Kind != scheduler.KindOneshot || jobs[0].Payload.Recipient != "biuro@example.com" {
		t.Errorf("job = %+v", jobs[0])
	}
	if !h.app.loop.Running() {
		t.Error("scheduling must start the loop")
	}
}

func TestApp_processMessage_CleansResponse(t *testing.T) {
	provider := llm.NewScriptProvider(stop("<think>kto jest odbiorcą?</think>Do kogo wysłać email?"))
	h := newHarness(t, createTestConfig(t), WithProvider(provider))

	h.send(t, bus.NewTextMessage(7, 70, "wyślij email"))

	if out := h.reply(t); out.Text != "Do kogo wysłać email?" {
		t.Errorf("reply = %q", out.Text)
	}
}

func TestApp_processMessage_Command(t *testing.T) {
	h := newHarness(t, createTestConfig(t), WithProvider(llm.NewEchoProvider()))

	h.send(t, bus.NewCommandMessage(7, 70, constants.CommandHelp, nil))

	out := h.reply(t)
	if out.Text != constants.MsgHelp || out.Format != bus.FormatMarkdown {
		t.Errorf("reply = %q (%q)", out.Text, out.Format)
	}
	select {
	case ev := <-h.events:
		t.Errorf("commands must not emit processing events, got %+v", ev)
	default:
	}
}

func TestApp_processMessage_Voice(t *testing.T) {
	transcriber := &llm.MockTranscriber{Text: " przypomnij o spotkaniu jutro 09:00 "}
	provider := llm.NewScriptProvider(stop("Do kogo wysłać przypomnienie?"))
	h := newHarness(t, createTestConfig(t), WithProvider(provider), WithTranscriber(transcriber))
	h.channel.files["voice-1"] = []byte("OggS fake audio")

	h.send(t, bus.NewVoiceMessage(7, 70, "voice-1"))

	if out := h.reply(t); out.Text != "🎤 Transkrypcja: przypomnij o spotkaniu jutro 09:00" {
		t.Errorf("transcription reply = %q", out.Text)
	}
	if out := h.reply(t); out.Text != "Do kogo wysłać przypomnienie?" {
		t.Errorf("engine reply = %q", out.Text)
	}

	paths := transcriber.Paths()
	if len(paths) != 1 {
		t.Fatalf("Transcribe called %d times, want 1", len(paths))
	}
	if _, err := os.Stat(paths[0]); !os.IsNotExist(err) {
		t.Errorf("temp audio file %s not removed", paths[0])
	}

	req, ok := provider.LastRequest()
	if !ok {
		t.Fatal("provider was not called")
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Content != "przypomnij o spotkaniu jutro 09:00" {
		t.Errorf("provider got %q", last.Content)
	}
}

func TestApp_processMessage_VoiceErrors(t *testing.T) {
	tests := []struct {
		name        string
		transcriber llm.Transcriber
		fileID      string
		want        string
	}{
		{
			name:        "empty transcription",
			transcriber: &llm.MockTranscriber{Text: "   "},
			fileID:      "voice-1",
			want:        constants.MsgVoiceEmpty,
		},
		{
			name:        "transcription error",
			transcriber: &llm.MockTranscriber{Err: errors.New("whisper down")},
			fileID:      "voice-1",
			want:        constants.MsgVoiceFailed,
		},
		{
			name:        "download error",
			transcriber: &llm.MockTranscriber{Text: "nieważne"},
			fileID:      "missing",
			want:        constants.MsgVoiceFailed,
		},
		{
			name:   "no transcriber",
			fileID: "voice-1",
			want:   constants.MsgVoiceUnconfigured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := llm.NewEchoProvider()
			opts := []Option{WithProvider(provider)}
			if tt.transcriber != nil {
				opts = append(opts, WithTranscriber(tt.transcriber))
			}
			h := newHarness(t, createTestConfig(t), opts...)
			h.channel.files["voice-1"] = []byte("OggS")

			h.send(t, bus.NewVoiceMessage(7, 70, tt.fileID))

			if out := h.reply(t); out.Text != tt.want {
				t.Errorf("reply = %q, want %q", out.Text, tt.want)
			}
			if provider.GetCallCount() != 0 {
				t.Error("provider must not be called")
			}
		})
	}
}

func TestApp_processMessage_UnexpectedDocument(t *testing.T) {
	h := newHarness(t, createTestConfig(t), WithProvider(llm.NewEchoProvider()))
	h.channel.files["doc-1"] = []byte("%PDF")

	h.send(t, bus.NewDocumentMessage(7, 70, "doc-1", "faktura.pdf", 4))

	if out := h.reply(t); out.Text != attachment.ReplyUnexpected {
		t.Errorf("reply = %q", out.Text)
	}
	if h.app.Store().Len() != 0 {
		t.Error("unexpected upload must not schedule anything")
	}
}

func TestApp_processMessage_RequestedDocument(t *testing.T) {
	cfg := createTestConfig(t)
	provider := llm.NewScriptProvider(stop("ZAŁĄCZNIK: Prześlij fakturę w PDF"))
	h := newHarness(t, cfg, WithProvider(provider))
	h.channel.files["doc-1"] = []byte("%PDF-1.4")

	h.send(t, bus.NewTextMessage(7, 70, "wyślij fakturę jutro 09:00"))
	if out := h.reply(t); !strings.Contains(out.Text, "Prześlij fakturę w PDF") {
		t.Errorf("attachment prompt = %q", out.Text)
	}

	h.send(t, bus.NewDocumentMessage(7, 70, "doc-1", "faktura.pdf", 8))
	if out := h.reply(t); out.Text != attachment.ReplyStored {
		t.Errorf("reply = %q", out.Text)
	}

	matches, err := filepath.Glob(filepath.Join(cfg.Conversation.AttachmentsDir, "attachment_7_*_faktura.pdf"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("stored files = %v (%v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil || string(data) != "%PDF-1.4" {
		t.Errorf("stored content = %q (%v)", data, err)
	}
}

func TestApp_processMessage_DocumentDownloadFails(t *testing.T) {
	provider := llm.NewScriptProvider(stop("ZAŁĄCZNIK: Prześlij umowę"))
	h := newHarness(t, createTestConfig(t), WithProvider(provider))

	h.send(t, bus.NewTextMessage(7, 70, "wyślij umowę"))
	h.reply(t)

	h.send(t, bus.NewDocumentMessage(7, 70, "gone", "umowa.pdf", 8))
	if out := h.reply(t); out.Text != attachment.ReplyFailed {
		t.Errorf("reply = %q", out.Text)
	}
}
