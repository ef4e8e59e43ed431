package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/learnspace/checkout-api/internal/domain/course"
)

// ListCourses handles GET /api/courses.
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.List(r.Context())
	if err != nil {
		writeInternalError(w, r, errors.Wrap(err, "list courses"))
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, c := range courses {
				h.encodeCourse(e, c)
			}
		})
	})
}

// GetCourse handles GET /api/courses/{id}.
func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	c, err := h.courses.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, course.ErrNotFound) {
			writeError(w, http.StatusNotFound, "course not found")
			return
		}
		writeInternalError(w, r, errors.Wrap(err, "get course"))
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeCourse(e, *c)
	})
}

// encodeCourse writes a course with the thumbnail prefixed by the configured
// asset base URL.
func (h *Handler) encodeCourse(e *jx.Encoder, c course.Course) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(c.ID) })
		e.Field("title", func(e *jx.Encoder) { e.Str(c.Title) })
		e.Field("category", func(e *jx.Encoder) { e.Str(c.Category) })
		encodeDecimalField(e, "price", c.Price.String())
		e.Field("instructor", func(e *jx.Encoder) { e.Str(c.Instructor) })
		e.Field("thumbnail", func(e *jx.Encoder) { e.Str(h.assetBaseURL + c.Thumbnail) })
	})
}
