package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ak-arsha/Picture-Perfect/landmark"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubDetector struct {
	faces []landmark.Face
}

func (d stubDetector) Detect(*image.NRGBA) ([]landmark.Face, error) {
	return d.faces, nil
}

var gray = color.NRGBA{R: 100, G: 100, B: 100, A: 255}

// form builds a multipart request body with a PNG upload and the given fields.
func form(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("image", "portrait.png")
	require.NoError(t, err)
	require.NoError(t, imaging.Encode(part, imaging.New(40, 30, gray), imaging.PNG))

	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func newTestServer(t *testing.T, detector *stubDetector) *Server {
	t.Helper()
	var s *Server
	var err error
	if detector == nil {
		s, err = New(Config{}, nil, nil)
	} else {
		s, err = New(Config{}, detector, nil)
	}
	require.NoError(t, err)
	return s
}

func post(s *Server, body *bytes.Buffer, ctype string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/enhance", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["detector"])
	assert.Contains(t, body["backends"], "go")

	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestServer_EnhanceWithDetector(t *testing.T) {
	faces := []landmark.Face{landmark.Blank(landmark.MediaPipe), landmark.Blank(landmark.MediaPipe)}
	s := newTestServer(t, &stubDetector{faces: faces})

	body, ctype := form(t, map[string]string{"brightness": "20"})
	rec := post(s, body, ctype)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2", rec.Header().Get(FacesHeader))
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "portrait-enhanced.png")

	out, err := imaging.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 30), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 120, G: 120, B: 120, A: 255}, imaging.Clone(out).NRGBAAt(5, 5))
}

func TestServer_EnhanceWithLandmarks(t *testing.T) {
	s := newTestServer(t, &stubDetector{})

	var lm bytes.Buffer
	require.NoError(t, landmark.NewFile([]landmark.Face{landmark.Blank(landmark.Pigo)}).Save(&lm))

	body, ctype := form(t, map[string]string{"landmarks": lm.String(), "format": "jpg", "smile": "3"})
	rec := post(s, body, ctype)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get(FacesHeader))
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
}

func TestServer_EnhanceRejectsBadRequests(t *testing.T) {
	s := newTestServer(t, nil)

	testCases := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{name: "gaze out of range", fields: map[string]string{"gaze": "3"}, want: "Gaze must be at most 2"},
		{name: "negative smile", fields: map[string]string{"smile": "-1"}, want: "Smile must be at least 0"},
		{name: "non finite", fields: map[string]string{"smile": "NaN"}, want: "Smile must be a finite number"},
		{name: "tone out of range", fields: map[string]string{"softness": "2"}, want: "Softness must be at most 1"},
		{name: "unknown overlap", fields: map[string]string{"overlap": "maybe"}, want: "Overlap must be one of"},
		{name: "bad landmarks", fields: map[string]string{"landmarks": "{"}, want: "could not decode landmark file"},
		{name: "unknown layout", fields: map[string]string{"landmarks": `{"layout":"dlib","faces":[]}`}, want: "unknown landmark layout"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, ctype := form(t, tc.fields)
			rec := post(s, body, ctype)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestServer_EnhanceRequiresImage(t *testing.T) {
	s := newTestServer(t, nil)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("gaze", "1"))
	require.NoError(t, w.Close())
	rec := post(s, &body, w.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body.Reset()
	w = multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", "portrait.png")
	require.NoError(t, err)
	part.Write([]byte("definitely not a png"))
	require.NoError(t, w.Close())
	rec = post(s, &body, w.FormDataContentType())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestServer_UnknownBackendAndRoute(t *testing.T) {
	_, err := New(Config{Backend: "no-such-backend"}, nil, nil)
	assert.Error(t, err)

	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v2/enhance", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
