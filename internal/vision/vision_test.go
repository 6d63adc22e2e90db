package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ivlev/studio3d/internal/pixel"
	"github.com/ivlev/studio3d/internal/scene"
)

func ollama(t *testing.T, reply string) (*httptest.Server, *generateRequest) {
	t.Helper()
	var got generateRequest
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"llama3.2-vision:latest"},{"name":"qwen2.5"}]}`))
	})
	mux.HandleFunc("POST /api/generate", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(generateResponse{Response: reply})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestAnalyze(t *testing.T) {
	srv, req := ollama(t, "Sure! Here you go:\n```json\n"+
		`{"subject":"bronze statue","hasBackground":false,"suggestedDepth":250,`+
		`"suggestedLighting":"Dramatic","confidence":1.7,"objects":["statue","metal base",3]}`+
		"\n```")
	c := NewClient(srv.URL, zaptest.NewLogger(t))

	r := c.Analyze(context.Background(), []byte("png"), "")
	assert.Equal(t, "bronze statue", r.Subject)
	assert.False(t, r.HasBackground)
	assert.Equal(t, 100.0, r.SuggestedDepth, "depth clamped")
	assert.Equal(t, 1.0, r.Confidence, "confidence clamped")
	assert.Equal(t, scene.LightingDramatic, r.SuggestedLighting)
	assert.Equal(t, []string{"statue", "metal base"}, r.Objects)

	assert.Equal(t, DefaultVisionModel, req.Model)
	assert.False(t, req.Stream)
	require.NotNil(t, req.Options)
	assert.Equal(t, 0.3, req.Options.Temperature)
	assert.Equal(t, []string{"cG5n"}, req.Images)
}

func TestAnalyzeBase64StripsDataURI(t *testing.T) {
	srv, req := ollama(t, `{"subject":"cup"}`)
	c := NewClient(srv.URL, nil)

	r := c.AnalyzeBase64(context.Background(), "data:image/png;base64,AAAA", "bakllava")
	assert.Equal(t, []string{"AAAA"}, req.Images)
	assert.Equal(t, "bakllava", req.Model)
	assert.True(t, r.HasBackground, "missing hasBackground means true")
	assert.Equal(t, float64(DefaultDepth), r.SuggestedDepth)
	assert.Equal(t, scene.LightingNatural, r.SuggestedLighting)
	assert.NotNil(t, r.Objects)
}

func TestAnalyzeFallsBack(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		},
		"no json": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"response":"I cannot see anything."}`))
		},
		"broken json": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"response":"{\"subject\": }"}`))
		},
		"garbage body": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		},
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			c := NewClient(srv.URL, zaptest.NewLogger(t))
			assert.Equal(t, Fallback(), c.Analyze(context.Background(), []byte{1}, "m"))
		})
	}
}

func TestUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, zaptest.NewLogger(t))
	ctx := context.Background()
	assert.False(t, c.CheckAvailability(ctx))
	assert.Equal(t, []string{}, c.ListModels(ctx))
	assert.Equal(t, Fallback(), c.Analyze(ctx, []byte{1}, ""))
	assert.Equal(t, fallbackMood(), c.AnalyzeMood(ctx, ""))

	want := Fallback()
	assert.Equal(t, "generic object", want.Subject)
	assert.True(t, want.HasBackground)
	assert.Equal(t, 30.0, want.SuggestedDepth)
	assert.Equal(t, 0.0, want.Confidence)
	assert.Empty(t, want.Objects)
}

func TestAvailabilityAndModels(t *testing.T) {
	srv, _ := ollama(t, "")
	c := NewClient(srv.URL+"/", nil)
	assert.True(t, c.CheckAvailability(context.Background()))
	assert.Equal(t, []string{"llama3.2-vision:latest", "qwen2.5"}, c.ListModels(context.Background()))
}

func TestAnalyzeMood(t *testing.T) {
	srv, req := ollama(t, "  Dramatic.\n")
	m := NewClient(srv.URL, nil).AnalyzeMood(context.Background(), "")
	assert.Equal(t, Mood{Mood: "dramatic", SuggestedMusic: "orchestral"}, m)
	assert.Equal(t, "cinematic", m.MusicPreset())
	assert.Equal(t, DefaultTextModel, req.Model)
	assert.Empty(t, req.Images)

	assert.Equal(t, "energetic", ParseMood("upbeat techno").Mood)
	assert.Equal(t, "electronic", ParseMood("upbeat").MusicPreset())
	assert.Equal(t, "relaxing", ParseMood("CALM").MusicPreset())
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name      string
		objects   []string
		lighting  scene.Lighting
		metalness float64
		roughness float64
	}{
		{"defaults", []string{"tree"}, scene.LightingDramatic, 0.3, 0.7},
		{"person", []string{"Young Person"}, scene.LightingSoft, 0.1, 0.9},
		{"italian face", []string{"persona"}, scene.LightingSoft, 0.1, 0.9},
		{"metal", []string{"METALLIC robot"}, scene.LightingDramatic, 0.9, 0.2},
		{"metal wins material", []string{"face", "metallo"}, scene.LightingSoft, 0.9, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Fallback()
			r.SuggestedLighting = scene.LightingDramatic
			r.SuggestedDepth = 55
			r.Objects = tt.objects

			s := Suggest(r)
			assert.Equal(t, 55.0, s.Depth)
			assert.Equal(t, tt.lighting, s.Lighting)
			assert.Equal(t, tt.metalness, s.Metalness)
			assert.Equal(t, tt.roughness, s.Roughness)

			cfg := s.Apply(scene.Default())
			assert.Equal(t, tt.metalness, cfg.Material.Metalness)
			assert.Equal(t, scene.LightingRig(tt.lighting), cfg.Lights)
			assert.Equal(t, 0.005, cfg.Animation.RotationSpeed[1])
			assert.Equal(t, "#ffffff", cfg.Material.Color)
		})
	}
}

func TestRemoveBackground(t *testing.T) {
	buf := pixel.Filled(8, 8, 255, 0, 0, 255)
	buf.Pix[(4*8+4)*4+2] = 255

	r := Fallback()
	r.HasBackground = false
	same, err := RemoveBackground(buf, r, nil)
	require.NoError(t, err)
	assert.Same(t, buf, same)

	r.HasBackground = true
	out, err := RemoveBackground(buf, r, nil)
	require.NoError(t, err)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			_, _, _, a := out.At(x, y)
			if x == 4 && y == 4 {
				assert.Equal(t, uint8(255), a, "magenta is far from red")
			} else {
				assert.Equal(t, uint8(0), a)
			}
		}
	}
}
