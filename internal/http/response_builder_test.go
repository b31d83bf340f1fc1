package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyString("test").
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should not be set without triggers")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerRecordsChanged(3).
		TriggerFormReset().
		TriggerSuccessNotification(MsgSaved).
		Write(w)

	var triggers map[string]json.RawMessage
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	for _, name := range []string{EventRecordsChanged, EventFormReset, EventShowNotification} {
		if _, ok := triggers[name]; !ok {
			t.Errorf("HX-Trigger missing %q", name)
		}
	}

	var note struct {
		Type     string `json:"type"`
		Message  string `json:"message"`
		Duration int    `json:"duration"`
	}
	if err := json.Unmarshal(triggers[EventShowNotification], &note); err != nil {
		t.Fatal(err)
	}
	if note.Type != "success" || note.Message != "Record saved successfully!" || note.Duration != 3000 {
		t.Errorf("notification = %+v", note)
	}
	if !strings.Contains(string(triggers[EventRecordsChanged]), `"change_count":3`) {
		t.Errorf("records:changed payload = %s", triggers[EventRecordsChanged])
	}
}

func TestHTMXResponseBuilder_ErrorNotification(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		Status(http.StatusBadGateway).
		TriggerErrorNotification(MsgUnreachable).
		Write(w)

	if w.Code != http.StatusBadGateway {
		t.Errorf("Status code = %d", w.Code)
	}
	trigger := w.Header().Get("HX-Trigger")
	for _, part := range []string{`"type":"error"`, `"duration":5000`, MsgUnreachable} {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}
}

func TestHTMXResponseBuilder_BodyTemplate(t *testing.T) {
	tmpl := template.Must(template.New("x").Parse(`{{define "ok"}}<p>{{.}}</p>{{end}}{{define "bad"}}{{.Missing.Field}}{{end}}`))

	w := httptest.NewRecorder()
	ok := NewHTMXResponse().BodyTemplate(tmpl, "ok", "<b>")
	if ok.RenderError() != nil {
		t.Errorf("RenderError() = %v, want nil", ok.RenderError())
	}
	ok.Write(w)
	if w.Body.String() != "<p>&lt;b&gt;</p>" {
		t.Errorf("Body = %q", w.Body.String())
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}

	w = httptest.NewRecorder()
	bad := NewHTMXResponse().TriggerRecordsChanged(1).BodyTemplate(tmpl, "bad", 42)
	if bad.RenderError() == nil {
		t.Error("RenderError() = nil for a failing template")
	}
	bad.Write(w)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("triggers should be dropped when rendering fails")
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *HTMXResponseBuilder
		code    int
	}{
		{"bad request", BadRequestError("<bad>"), http.StatusBadRequest},
		{"not found", NotFoundError("<bad>"), http.StatusNotFound},
		{"internal", InternalServerError("<bad>"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.code {
				t.Errorf("Status code = %d, want %d", w.Code, tt.code)
			}
			if !strings.Contains(w.Body.String(), "&lt;bad&gt;") {
				t.Errorf("message not escaped: %q", w.Body.String())
			}
		})
	}
}
