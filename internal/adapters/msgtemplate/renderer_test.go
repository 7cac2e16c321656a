package msgtemplate

import (
	"errors"
	"strings"
	"testing"

	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/renderer"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestRenderer_AllNotificationTemplatesRender(t *testing.T) {
	r := newRenderer(t)
	data := map[string]any{
		"FullName":        "Asha Mushi",
		"RegNumber":       "T/UDOM/2025/0042",
		"Email":           "asha@example.com",
		"PictureDeadline": "Tue, 04 Mar 2025 12:00:00 UTC",
	}
	for _, name := range []string{
		"member_registered",
		"member_approved",
		"member_rejected",
		"picture_reminder",
		"staff_new_registration",
		"staff_member_approved",
		"staff_member_rejected",
	} {
		out, err := r.Render(name, data)
		if err != nil {
			t.Errorf("render %s: %v", name, err)
			continue
		}
		if !strings.Contains(out, "Asha Mushi") {
			t.Errorf("render %s: member name missing:\n%s", name, out)
		}
	}
}

func TestRenderer_DeadlineIsOptional(t *testing.T) {
	r := newRenderer(t)
	out, err := r.Render("member_registered", map[string]any{
		"FullName":  "Asha Mushi",
		"RegNumber": "T/UDOM/2025/0042",
		"Email":     "asha@example.com",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "deadline is") {
		t.Errorf("deadline paragraph should be omitted:\n%s", out)
	}
}

func TestRenderer_Announcement(t *testing.T) {
	r := newRenderer(t)
	out, err := r.Render("announcement", map[string]any{
		"Title":   "General Meeting",
		"Content": "Friday at 4pm in Lab 2.",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "General Meeting") || !strings.Contains(out, "Lab 2") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	r := newRenderer(t)
	_, err := r.Render("no_such_template", nil)
	var te *renderer.TemplateError
	if !errors.As(err, &te) {
		t.Fatalf("got %v, want TemplateError", err)
	}
	if te.Name != "no_such_template" {
		t.Errorf("template name = %q", te.Name)
	}
}
