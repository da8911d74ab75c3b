package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "front matter removed",
			in:   "---\ntitle: Manual\ntags: [a]\n---\n# Turbina\n\nTexto",
			want: "# Turbina\n\nTexto",
		},
		{
			name: "horizontal rule kept",
			in:   "Parte 1\n\n---\n\nParte 2",
			want: "Parte 1\n\n---\n\nParte 2",
		},
		{
			name: "zero width and bom",
			in:   "\ufeffPá\u200bgina",
			want: "Página",
		},
		{
			name: "html entities and tags",
			in:   "<p>Vento&nbsp;&amp;&nbsp;sol</p>",
			want: "Vento & sol",
		},
		{
			name: "raw non-breaking space",
			in:   "Turbina\u00a0WTG-01",
			want: "Turbina WTG-01",
		},
		{
			name: "bullets normalized",
			in:   "-   um\n* dois\n• três\n**negrito**",
			want: "- um\n- dois\n- três\n**negrito**",
		},
		{
			name: "whitespace collapsed",
			in:   "  a   b\t\tc  \n\n\n\n\nd",
			want: "a b c\n\nd",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}
