package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/murfkiddo/murfkiddo/pkg/hub"
	"github.com/murfkiddo/murfkiddo/pkg/inference"
	"github.com/murfkiddo/murfkiddo/pkg/settings"
	"github.com/murfkiddo/murfkiddo/pkg/transcribe"
	"github.com/murfkiddo/murfkiddo/pkg/tts"
)

type fixture struct {
	server *Server
	llm    *inference.Mock
	speech *tts.Mock
	stt    *transcribe.Mock
	store  *settings.Memory
}

func newFixture() *fixture {
	f := &fixture{
		llm:    inference.NewMock(),
		speech: tts.NewMock(),
		stt:    transcribe.NewMock(),
		store:  settings.NewMemory(10),
	}
	f.server = NewServer(Options{
		LLM:    f.llm,
		Speech: f.speech,
		STT:    f.stt,
		Store:  f.store,
		Feed:   hub.New(),
		Voice:  "en-US-natalie",
	})
	return f
}

func postJSON(t *testing.T, s *Server, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode body %q: %v", data, err)
	}
	return out
}

func TestStoryHappyPath(t *testing.T) {
	f := newFixture()
	resp, body := postJSON(t, f.server, "/api/story", `{"topic":"dragons","length":"short"}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if body["story"] == "" || body["story"] == nil {
		t.Error("missing story text")
	}
	if body["title"] != "The Story of Dragons" {
		t.Errorf("title = %v", body["title"])
	}
	if url, _ := body["audioUrl"].(string); !strings.HasPrefix(url, "https://") {
		t.Errorf("audioUrl = %v", body["audioUrl"])
	}
	if got := f.store.Activities(); len(got) != 1 || got[0].Mode != "story" {
		t.Errorf("activities = %+v, want one story entry", got)
	}
}

func TestValidationRejectedBeforeProviders(t *testing.T) {
	cases := []struct {
		name, path, body string
	}{
		{"story no topic", "/api/story", `{}`},
		{"chat empty message", "/api/chat", `{"message":"   "}`},
		{"tutor no question", "/api/tutor", `{"subject":"math"}`},
		{"language no target", "/api/language", `{"action":"translate"}`},
		{"language no action", "/api/language", `{"targetLanguage":"Spanish"}`},
		{"malformed json", "/api/story", `{"topic":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			resp, body := postJSON(t, f.server, tc.path, tc.body)

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			if body["success"] != false {
				t.Errorf("success = %v, want false", body["success"])
			}
			if msg, _ := body["error"].(string); msg == "" {
				t.Error("missing error message")
			}
			if f.llm.CallCount("Generate") != 0 {
				t.Error("Generate called for invalid input")
			}
			if f.speech.CallCount("Synthesize") != 0 {
				t.Error("Synthesize called for invalid input")
			}
		})
	}
}

func TestChatSurvivesSynthesisFailure(t *testing.T) {
	f := newFixture()
	f.speech.SynthesizeFunc = func(ctx context.Context, req *tts.SpeechRequest) (*tts.SpeechResult, error) {
		return nil, tts.WrapError("murf", errors.New("boom"))
	}

	resp, body := postJSON(t, f.server, "/api/chat", `{"message":"hi there"}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if body["reply"] == nil || body["reply"] == "" {
		t.Error("missing reply text")
	}
	if body["audioUrl"] != nil {
		t.Errorf("audioUrl = %v, want null", body["audioUrl"])
	}
}

func TestStoryFailsWhollyOnSynthesisFailure(t *testing.T) {
	f := newFixture()
	f.speech.SynthesizeFunc = func(ctx context.Context, req *tts.SpeechRequest) (*tts.SpeechResult, error) {
		return nil, tts.WrapError("murf", errors.New("boom"))
	}

	resp, body := postJSON(t, f.server, "/api/story", `{"topic":"dragons"}`)

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
}

func TestGenerationTimeoutReturns408(t *testing.T) {
	f := newFixture()
	f.llm.GenerateFunc = func(ctx context.Context, req *inference.Request) (*inference.Response, error) {
		return nil, inference.WrapError("gemini", context.DeadlineExceeded)
	}

	resp, body := postJSON(t, f.server, "/api/tutor", `{"question":"why is the sky blue"}`)

	if resp.StatusCode != http.StatusRequestTimeout {
		t.Errorf("status = %d, want 408", resp.StatusCode)
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "too long") {
		t.Errorf("error = %q, want a try-again message", msg)
	}
}

func TestChainedGenerationTimeoutReturns408(t *testing.T) {
	// Both providers time out; the chain's aggregate error must still
	// carry the deadline cause so the handler answers 408, not 500.
	primary := inference.WithError(inference.WrapError("gemini", context.DeadlineExceeded))
	fallback := inference.WithError(inference.WrapError("openai", context.DeadlineExceeded))
	chain, err := inference.NewChain(primary, fallback)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}

	server := NewServer(Options{
		LLM:    chain,
		Speech: tts.NewMock(),
		STT:    transcribe.NewMock(),
		Store:  settings.NewMemory(10),
		Feed:   hub.New(),
	})

	resp, body := postJSON(t, server, "/api/story", `{"topic":"dragons"}`)

	if resp.StatusCode != http.StatusRequestTimeout {
		t.Errorf("status = %d, want 408", resp.StatusCode)
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "too long") {
		t.Errorf("error = %q, want a try-again message", msg)
	}
}

func TestGenerationFailureReturns500(t *testing.T) {
	f := newFixture()
	f.llm.GenerateFunc = func(ctx context.Context, req *inference.Request) (*inference.Response, error) {
		return nil, inference.WrapError("gemini", errors.New("quota exhausted"))
	}

	resp, body := postJSON(t, f.server, "/api/play", `{"gameType":"riddle"}`)

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if msg, _ := body["error"].(string); strings.Contains(msg, "quota") {
		t.Errorf("error %q leaks provider detail", msg)
	}
	if f.speech.CallCount("Synthesize") != 0 {
		t.Error("Synthesize called after generation failed")
	}
}

func TestModeEnvelopeFields(t *testing.T) {
	cases := []struct {
		path, body, textField, echoField, echoValue string
	}{
		{"/api/play", `{"gameType":"word game"}`, "game", "gameType", "word game puzzle"},
		{"/api/language", `{"action":"teach me words","targetLanguage":"Spanish"}`, "lesson", "language", "Spanish"},
		{"/api/bedtime", `{}`, "content", "contentType", "peaceful"},
		{"/api/tutor", `{"question":"what is rain"}`, "answer", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			f := newFixture()
			resp, body := postJSON(t, f.server, tc.path, tc.body)

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200: %v", resp.StatusCode, body)
			}
			if body[tc.textField] == nil || body[tc.textField] == "" {
				t.Errorf("missing %q field", tc.textField)
			}
			if tc.echoField != "" && body[tc.echoField] != tc.echoValue {
				t.Errorf("%s = %v, want %q", tc.echoField, body[tc.echoField], tc.echoValue)
			}
		})
	}
}

func TestBedtimeUsesSlowerNarration(t *testing.T) {
	f := newFixture()
	var captured tts.SpeechRequest
	f.speech.SynthesizeFunc = func(ctx context.Context, req *tts.SpeechRequest) (*tts.SpeechResult, error) {
		captured = *req
		return &tts.SpeechResult{AudioURL: "https://audio.example.com/a.mp3"}, nil
	}

	resp, _ := postJSON(t, f.server, "/api/bedtime", `{"topic":"stars"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if captured.Style != tts.StyleNarration {
		t.Errorf("style = %q, want narration", captured.Style)
	}
	if captured.Rate != -10 {
		t.Errorf("rate = %d, want -10", captured.Rate)
	}
	if captured.VoiceID != "en-US-natalie" {
		t.Errorf("voice = %q", captured.VoiceID)
	}
}

func TestVoiceTranscription(t *testing.T) {
	t.Run("audio file", func(t *testing.T) {
		f := newFixture()
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		fw, err := w.CreateFormFile("audio", "capture.webm")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte("fake audio bytes"))
		w.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/voice", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, err := f.server.App().Test(req, -1)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		body := decodeBody(t, resp)

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if body["transcript"] != "tell me a story about dragons" {
			t.Errorf("transcript = %v", body["transcript"])
		}
		if body["fallback"] != false {
			t.Errorf("fallback = %v, want false", body["fallback"])
		}
	})

	t.Run("transcript field skips the transcriber", func(t *testing.T) {
		f := newFixture()
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		w.WriteField("transcript", "what do pandas eat")
		w.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/voice", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, err := f.server.App().Test(req, -1)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		body := decodeBody(t, resp)

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if body["transcript"] != "what do pandas eat" {
			t.Errorf("transcript = %v", body["transcript"])
		}
		if f.stt.CallCount() != 0 {
			t.Error("transcriber called despite transcript field")
		}
	})

	t.Run("degraded provider signals fallback", func(t *testing.T) {
		f := newFixture()
		f.stt.TranscribeFunc = func(ctx context.Context, audio io.Reader, filename string) (*transcribe.Transcript, error) {
			return &transcribe.Transcript{Fallback: true}, nil
		}

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		fw, _ := w.CreateFormFile("audio", "capture.webm")
		fw.Write([]byte("noise"))
		w.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/voice", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, err := f.server.App().Test(req, -1)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		body := decodeBody(t, resp)

		if body["success"] != true {
			t.Errorf("success = %v, want true", body["success"])
		}
		if body["fallback"] != true {
			t.Errorf("fallback = %v, want true", body["fallback"])
		}
	})

	t.Run("no audio is a validation error", func(t *testing.T) {
		f := newFixture()
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		w.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/voice", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, err := f.server.App().Test(req, -1)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestSettingsRoundTrip(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	resp, err := f.server.App().Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body := decodeBody(t, resp)
	got, _ := body["settings"].(map[string]any)
	if got["contentFilter"] != "strict" {
		t.Errorf("default contentFilter = %v", got["contentFilter"])
	}
	capture, _ := body["capture"].(map[string]any)
	if capture["listenWindowSeconds"] != float64(15) || capture["maxRestarts"] != float64(2) {
		t.Errorf("capture tuning = %v, want clamped defaults", capture)
	}

	resp, body = postJSON(t, f.server, "/api/settings",
		`{"dailyLimitMinutes":30,"contentFilter":"moderate"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", resp.StatusCode, body)
	}
	got, _ = body["settings"].(map[string]any)
	if got["contentFilter"] != "moderate" {
		t.Errorf("updated contentFilter = %v", got["contentFilter"])
	}

	resp, _ = postJSON(t, f.server, "/api/settings", `{"dailyLimitMinutes":-5}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid update status = %d, want 400", resp.StatusCode)
	}
	if f.store.Settings().ContentFilter != "moderate" {
		t.Error("rejected update changed stored settings")
	}
}

func TestSessionEventEndpoint(t *testing.T) {
	f := newFixture()

	post := func(body string) (*http.Response, map[string]any) {
		return postJSON(t, f.server, "/api/session/event", body)
	}

	resp, body := post(`{"event":"start"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d, want 200: %v", resp.StatusCode, body)
	}
	if body["state"] != "listening" {
		t.Errorf("state after start = %v, want listening", body["state"])
	}

	resp, body = post(`{"event":"result","text":"tell me a joke"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("result status = %d, want 200: %v", resp.StatusCode, body)
	}
	if body["state"] != "processing" {
		t.Errorf("state after result = %v, want processing", body["state"])
	}

	resp, body = post(`{"event":"responded"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("responded status = %d, want 200", resp.StatusCode)
	}
	if body["state"] != "ready" {
		t.Errorf("state after responded = %v, want ready", body["state"])
	}

	t.Run("out-of-order event rejected", func(t *testing.T) {
		// Ready state cannot accept a speech result.
		resp, body := post(`{"event":"result","text":"again"}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
		if body["success"] != false {
			t.Errorf("success = %v, want false", body["success"])
		}
	})

	t.Run("unknown event rejected", func(t *testing.T) {
		resp, _ := post(`{"event":"levitate"}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("reset returns to greeting", func(t *testing.T) {
		resp, body := post(`{"event":"reset"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("reset status = %d, want 200", resp.StatusCode)
		}
		if body["state"] != "greeting" {
			t.Errorf("state after reset = %v, want greeting", body["state"])
		}
		if body["textFallback"] != false || body["restarts"] != float64(0) {
			t.Errorf("reset did not clear counters: %v", body)
		}
	})
}

func TestHealthReportsComponents(t *testing.T) {
	f := newFixture()
	f.speech.HealthFunc = func(ctx context.Context) error {
		return errors.New("murf unreachable")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	resp, err := f.server.App().Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body := decodeBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", body["status"])
	}
	components, _ := body["components"].(map[string]any)
	if components["generation"] != "ok" || components["speech"] != "unavailable" {
		t.Errorf("components = %v", components)
	}
}
