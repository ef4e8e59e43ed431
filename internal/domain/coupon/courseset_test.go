package coupon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCourseSet(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty string", raw: "", want: []string{}},
		{name: "whitespace only", raw: "  ", want: []string{}},
		{name: "single id", raw: "go-101", want: []string{"go-101"}},
		{name: "multiple ids", raw: "go-201,go-101", want: []string{"go-101", "go-201"}},
		{name: "spaces and blanks dropped", raw: " go-101 , , go-201,", want: []string{"go-101", "go-201"}},
		{name: "duplicates collapse", raw: "go-101,go-101", want: []string{"go-101"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ParseCourseSet(tt.raw)
			assert.Equal(t, tt.want, s.Slice())
		})
	}
}

func TestCourseSet_RoundTrip(t *testing.T) {
	s := NewCourseSet([]string{"b", "a", "c"})
	assert.Equal(t, "a,b,c", s.String())
	assert.Equal(t, s.Slice(), ParseCourseSet(s.String()).Slice())
}

func TestCourseSet_Contains(t *testing.T) {
	s := NewCourseSet([]string{"go-101"})
	assert.True(t, s.Contains("go-101"))
	assert.False(t, s.Contains("go-102"))
	assert.False(t, CourseSet{}.Contains("anything"))
}
