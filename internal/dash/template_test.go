package dash_test

import (
	"errors"
	"testing"

	"dashindex/internal/dash"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLTemplateRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		number   int64
		time     uint64
		want     string
	}{
		{"padded number", "$Number%05d$", 42, 0, "00042"},
		{"escaped dollars", "$$literal$$", 0, 0, "$literal$"},
		{"no identifiers", "init.mp4", 7, 0, "init.mp4"},
		{"representation and time", "$RepresentationID$/t-$Time$.m4s", 0, 900900, "video-1/t-900900.m4s"},
		{"bandwidth", "b$Bandwidth$_n$Number$.m4s", 3, 0, "b2500000_n3.m4s"},
		{"lower hex", "$Number%04x$.ts", 255, 0, "00ff.ts"},
		{"upper hex", "$Number%04X$.ts", 255, 0, "00FF.ts"},
		{"width without conversion", "$Number%03$", 5, 0, "005"},
		{"narrow width", "$Number%02d$", 12345, 0, "12345"},
		{"time wider than int64", "$Time$", 0, 18446744073709551615, "18446744073709551615"},
		{"repeated identifiers", "$Number$-$Number%03d$", 9, 0, "9-009"},
		{"negative number", "$Number%04d$", -5, 0, "-005"},
		{"negative hex", "$Number%01x$", -1, 0, "ffffffffffffffff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := dash.CompileURLTemplate(tt.template)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tmpl.Render("video-1", tt.number, 2500000, tt.time))
			assert.Equal(t, tt.template, tmpl.String())
		})
	}
}

func TestURLTemplateCompileErrors(t *testing.T) {
	tests := []struct {
		name     string
		template string
	}{
		{"unknown identifier", "$Segment$.m4s"},
		{"unterminated identifier", "seg-$Number"},
		{"format on representation id", "$RepresentationID%05d$"},
		{"malformed width", "$Number%0ad$"},
		{"format without zero flag", "$Number%5d$"},
		{"hex without zero flag", "$Number%x$"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dash.CompileURLTemplate(tt.template)
			require.Error(t, err)
			assert.True(t, errors.Is(err, dash.ErrMalformedTemplate))
			var templateErr *dash.TemplateError
			require.True(t, errors.As(err, &templateErr))
			assert.Equal(t, tt.template, templateErr.Template)
		})
	}
}

func TestMustCompileURLTemplatePanics(t *testing.T) {
	assert.Panics(t, func() { dash.MustCompileURLTemplate("$Nope$") })
	assert.NotPanics(t, func() { dash.MustCompileURLTemplate("$Number$") })
}
