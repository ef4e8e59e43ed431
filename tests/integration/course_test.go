//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestListCourses(t *testing.T) {
	resp := doGet(t, "/api/courses")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	courses := decodeJSON[[]courseResponse](t, resp)
	if len(courses) != 4 {
		t.Fatalf("expected 4 seeded courses, got %d", len(courses))
	}

	for _, c := range courses {
		if c.ID == "" || c.Title == "" {
			t.Errorf("course with empty id or title: %+v", c)
		}
		if c.Price <= 0 {
			t.Errorf("course %s has non-positive price %v", c.ID, c.Price)
		}
		if c.Thumbnail != "" && !strings.HasPrefix(c.Thumbnail, "http") {
			t.Errorf("course %s thumbnail not absolute: %s", c.ID, c.Thumbnail)
		}
	}
}

func TestGetCourse(t *testing.T) {
	resp := doGet(t, "/api/courses/go-101")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	c := decodeJSON[courseResponse](t, resp)
	if c.ID != "go-101" {
		t.Errorf("id: got %q, want go-101", c.ID)
	}
	if !almostEqual(c.Price, 49.99) {
		t.Errorf("price: got %v, want 49.99", c.Price)
	}
}

func TestGetCourse_NotFound(t *testing.T) {
	resp := doGet(t, "/api/courses/no-such-course")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Error == "" {
		t.Error("expected error message")
	}
}
