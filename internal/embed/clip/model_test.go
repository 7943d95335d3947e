package clip

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rupamthxt/imgvec/internal/config"
	"github.com/rupamthxt/imgvec/internal/embed"
	"github.com/rupamthxt/imgvec/internal/imageproc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ embed.Embedder = (*Model)(nil)

func solidRGB(w, h int, r, g, b uint8) *imageproc.RGB {
	img := imageproc.NewRGB(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 3 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = r, g, b
	}
	return img
}

func TestPreprocess_ShapeAndNormalization(t *testing.T) {
	tensor, err := Preprocess(solidRGB(320, 240, 255, 0, 255), 224)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3, 224, 224}, tensor.Shape)
	require.Len(t, tensor.Data, 3*224*224)

	plane := 224 * 224
	wantR := (1 - imageMean[0]) / imageStd[0]
	wantG := (0 - imageMean[1]) / imageStd[1]
	wantB := (1 - imageMean[2]) / imageStd[2]
	center := 112*224 + 112
	assert.InDelta(t, wantR, tensor.Data[center], 0.02)
	assert.InDelta(t, wantG, tensor.Data[plane+center], 0.02)
	assert.InDelta(t, wantB, tensor.Data[2*plane+center], 0.02)
}

func TestPreprocess_TallAndTinyImages(t *testing.T) {
	for _, size := range [][2]int{{10, 500}, {1, 1}, {224, 224}, {1, 20000}, {20000, 1}} {
		tensor, err := Preprocess(solidRGB(size[0], size[1], 0, 0, 0), 224)
		require.NoError(t, err)
		assert.Len(t, tensor.Data, 3*224*224)
	}
}

func TestPreprocess_Empty(t *testing.T) {
	_, err := Preprocess(imageproc.NewRGB(image.Rectangle{}), 224)
	require.Error(t, err)
}

func TestPreprocess_ShortPixelBuffer(t *testing.T) {
	img := solidRGB(8, 8, 1, 2, 3)
	img.Pix = img.Pix[:len(img.Pix)-1]

	_, err := Preprocess(img, 224)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not hold a 8x8")
}

// fakeInferenceServer answers KServe v2 infer calls with a vector of length dims
func fakeInferenceServer(t *testing.T, dims int, got *inferRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/models/clip-vit-base-patch32/ready":
			w.WriteHeader(http.StatusOK)
		case "/v2/models/clip-vit-base-patch32/infer":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
			out := make([]float32, dims)
			for i := range out {
				out[i] = float32(i) / float32(dims)
			}
			json.NewEncoder(w).Encode(inferResponse{
				ModelName: "clip-vit-base-patch32",
				Outputs: []inferTensor{{
					Name:     outputName,
					Shape:    []int{1, dims},
					Datatype: "FP32",
					Data:     out,
				}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func modelConfig(endpoint string) config.ModelConfig {
	cfg := config.Default().Model
	cfg.Endpoint = endpoint
	return cfg
}

func TestModel_EmbedGrayscale(t *testing.T) {
	var got inferRequest
	srv := fakeInferenceServer(t, 512, &got)
	defer srv.Close()

	m, err := Load(modelConfig(srv.URL))
	require.NoError(t, err)
	defer m.Close()

	gray := image.NewGray(image.Rect(0, 0, 64, 48))
	gray.SetGray(3, 3, color.Gray{Y: 77})

	vec, err := m.Embed(context.Background(), gray)
	require.NoError(t, err)
	assert.Len(t, vec, 512)
	assert.Equal(t, 512, m.Dimensions())
	assert.Equal(t, "openai/clip-vit-base-patch32", m.ID())

	require.Len(t, got.Inputs, 1)
	assert.Equal(t, inputName, got.Inputs[0].Name)
	assert.Equal(t, "FP32", got.Inputs[0].Datatype)
	assert.Equal(t, []int{1, 3, 224, 224}, got.Inputs[0].Shape)
	assert.Len(t, got.Inputs[0].Data, 3*224*224)

	// gray input means identical raw values on all channels
	plane := 224 * 224
	r := got.Inputs[0].Data[0]*imageStd[0] + imageMean[0]
	b := got.Inputs[0].Data[2*plane]*imageStd[2] + imageMean[2]
	assert.InDelta(t, r, b, 1e-4)
	assert.False(t, math.IsNaN(float64(r)))
}

func TestModel_DimensionMismatch(t *testing.T) {
	var got inferRequest
	srv := fakeInferenceServer(t, 768, &got)
	defer srv.Close()

	m, err := Load(modelConfig(srv.URL))
	require.NoError(t, err)

	_, err = m.Embed(context.Background(), solidRGB(8, 8, 1, 2, 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 512")
}

func TestModel_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not loaded"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	m, err := Load(modelConfig(srv.URL))
	require.NoError(t, err)

	_, err = m.Embed(context.Background(), solidRGB(8, 8, 1, 2, 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "model not loaded")

	assert.Error(t, m.Ready(context.Background()))
}

func TestModel_Ready(t *testing.T) {
	var got inferRequest
	srv := fakeInferenceServer(t, 512, &got)
	defer srv.Close()

	m, err := Load(modelConfig(srv.URL + "/"))
	require.NoError(t, err)
	assert.NoError(t, m.Ready(context.Background()))
}

func TestLoad_InvalidConfig(t *testing.T) {
	cfg := config.Default().Model
	cfg.Name = ""
	_, err := Load(cfg)
	require.Error(t, err)

	cfg = config.Default().Model
	cfg.Dimensions = 0
	_, err = Load(cfg)
	require.Error(t, err)
}
