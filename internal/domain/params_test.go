package domain

import (
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allFontsExist(string) bool { return true }

func validParams() RenderParams {
	return RenderParams{
		DurationSeconds: 15,
		FontID:          "mono",
		FontSize:        32,
		TextColor:       "#00FF00",
	}
}

func TestRenderParams_ApplyDefaults(t *testing.T) {
	var p RenderParams
	p.ApplyDefaults(EffectMatrix)

	assert.Equal(t, 15, p.DurationSeconds)
	assert.Equal(t, "mono", p.FontID)
	assert.Equal(t, 32, p.FontSize)
	assert.Equal(t, "#00FF00", p.TextColor)

	var q RenderParams
	q.ApplyDefaults(EffectTyping)
	assert.Equal(t, 90, q.DurationSeconds)
}

func TestRenderParams_ApplyDefaults_KeepsExplicitValues(t *testing.T) {
	p := RenderParams{DurationSeconds: 30, FontID: "bold", FontSize: 20, TextColor: "#FFFFFF"}
	p.ApplyDefaults(EffectMatrix)

	assert.Equal(t, 30, p.DurationSeconds)
	assert.Equal(t, "bold", p.FontID)
	assert.Equal(t, 20, p.FontSize)
	assert.Equal(t, "#FFFFFF", p.TextColor)
}

func TestRenderParams_Validate(t *testing.T) {
	tests := []struct {
		name       string
		effect     EffectKind
		mutate     func(*RenderParams)
		wantReason RejectReason
	}{
		{
			name:   "valid matrix",
			effect: EffectMatrix,
			mutate: func(p *RenderParams) {},
		},
		{
			name:       "unknown effect",
			effect:     EffectKind("plasma"),
			mutate:     func(p *RenderParams) {},
			wantReason: RejectInvalidParameter,
		},
		{
			name:       "matrix duration too long",
			effect:     EffectMatrix,
			mutate:     func(p *RenderParams) { p.DurationSeconds = 121 },
			wantReason: RejectInvalidParameter,
		},
		{
			name:       "matrix duration too short",
			effect:     EffectMatrix,
			mutate:     func(p *RenderParams) { p.DurationSeconds = 4 },
			wantReason: RejectInvalidParameter,
		},
		{
			name:       "typing duration too short",
			effect:     EffectTyping,
			mutate:     func(p *RenderParams) { p.DurationSeconds = 9 },
			wantReason: RejectInvalidParameter,
		},
		{
			name:   "typing duration at max",
			effect: EffectTyping,
			mutate: func(p *RenderParams) { p.DurationSeconds = 600 },
		},
		{
			name:       "font size too small",
			effect:     EffectMatrix,
			mutate:     func(p *RenderParams) { p.FontSize = 7 },
			wantReason: RejectInvalidParameter,
		},
		{
			name:       "font size too large",
			effect:     EffectMatrix,
			mutate:     func(p *RenderParams) { p.FontSize = 73 },
			wantReason: RejectInvalidParameter,
		},
		{
			name:       "bad color",
			effect:     EffectMatrix,
			mutate:     func(p *RenderParams) { p.TextColor = "green" },
			wantReason: RejectInvalidParameter,
		},
		{
			name:   "conflicting text sources",
			effect: EffectTyping,
			mutate: func(p *RenderParams) {
				p.InlineText = "a"
				p.UploadContent = []byte("b")
			},
			wantReason: RejectConflictingParameters,
		},
		{
			name:   "inline text too large",
			effect: EffectTyping,
			mutate: func(p *RenderParams) {
				p.DurationSeconds = 90
				p.InlineText = strings.Repeat("x", MaxInlineTextBytes+1)
			},
			wantReason: RejectInvalidParameter,
		},
		{
			name:   "upload too large",
			effect: EffectTyping,
			mutate: func(p *RenderParams) {
				p.DurationSeconds = 90
				p.UploadContent = make([]byte, MaxUploadBytes+1)
			},
			wantReason: RejectInvalidParameter,
		},
		{
			name:   "upload not utf8",
			effect: EffectTyping,
			mutate: func(p *RenderParams) {
				p.DurationSeconds = 90
				p.UploadContent = []byte{0xff, 0xfe}
			},
			wantReason: RejectInvalidParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)

			err := p.Validate(tt.effect, allFontsExist)

			if tt.wantReason == "" {
				assert.NoError(t, err)
				return
			}
			var rej *Rejection
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, tt.wantReason, rej.Reason)
		})
	}
}

func TestRenderParams_Validate_UnknownFont(t *testing.T) {
	p := validParams()
	p.FontID = "comic-sans"

	err := p.Validate(EffectMatrix, func(id string) bool { return id == "mono" })

	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, RejectInvalidParameter, rej.Reason)
}

func TestRenderParams_Text_Precedence(t *testing.T) {
	p := RenderParams{}
	assert.Equal(t, DefaultSourceText, p.Text())

	p.InlineText = "inline"
	assert.Equal(t, "inline", p.Text())

	p.UploadContent = []byte("upload")
	assert.Equal(t, "upload", p.Text())
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#00FF00")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{G: 255, A: 255}, c)

	c, err = ParseHexColor("#a1B2c3")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xA1, G: 0xB2, B: 0xC3, A: 255}, c)

	for _, bad := range []string{"", "00FF00", "#0F0", "#GGGGGG", "#00FF001"} {
		_, err := ParseHexColor(bad)
		assert.Error(t, err, "color %q should not parse", bad)
	}
}
