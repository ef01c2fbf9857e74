package server

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	picperfect "github.com/Ak-arsha/Picture-Perfect"
	"github.com/Ak-arsha/Picture-Perfect/imop"
	"github.com/Ak-arsha/Picture-Perfect/landmark"
	"github.com/Ak-arsha/Picture-Perfect/tone"
	"github.com/Ak-arsha/Picture-Perfect/utils"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// enhanceRequest holds the form fields of an enhance request besides the uploads.
type enhanceRequest struct {
	Gaze    float64 `form:"gaze,default=1" validate:"finite,gte=0,lte=2"`
	Smile   float64 `form:"smile,default=6" validate:"finite,gte=0,lte=10"`
	Overlap string  `form:"overlap" validate:"omitempty,oneof=skip-smile allow"`
	Format  string  `form:"format" validate:"omitempty,oneof=jpg jpeg png bmp gif tif tiff"`
}

var contentTypes = map[imaging.Format]string{
	imaging.JPEG: "image/jpeg",
	imaging.PNG:  "image/png",
	imaging.GIF:  "image/gif",
	imaging.TIFF: "image/tiff",
	imaging.BMP:  "image/bmp",
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"backends": imop.Backends(),
		"detector": s.detector != nil,
	})
}

// enhance accepts a multipart form with the image under "image", optional
// landmarks under "landmarks" (file or field) and the intensity and tone fields.
func (s *Server) enhance(c *gin.Context) {
	log := s.requestLogger(c)

	var req enhanceRequest
	var params tone.Params
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid form", err)
		return
	}
	if err := c.ShouldBind(&params); err != nil {
		respondError(c, http.StatusBadRequest, "invalid form", err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid parameters", err)
		return
	}
	if err := params.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, "invalid parameters", err)
		return
	}

	upload, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "the image file is required", err)
		return
	}
	src, err := readImage(upload)
	if err != nil {
		respondError(c, http.StatusUnprocessableEntity, "could not read the image", err)
		return
	}

	faces, err := readLandmarks(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid landmarks", err)
		return
	}

	overlap, _ := picperfect.ParseOverlapPolicy(req.Overlap)
	p := &picperfect.Processor{
		GazeIntensity:  req.Gaze,
		SmileIntensity: req.Smile,
		Tone:           params,
		Backend:        s.cfg.Backend,
		Overlap:        overlap,
		FaceWorkers:    s.cfg.FaceWorkers,
		Faces:          faces,
		Detector:       s.detector,
		Logger:         log,
	}
	res, err := p.Render(src)
	if err != nil {
		log.Error("enhancement failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not enhance the image", err)
		return
	}

	name := upload.Filename
	if req.Format != "" {
		name = "." + req.Format
	}
	format, err := picperfect.FormatFromName(name)
	if err != nil {
		format = imaging.JPEG
	}

	var buf bytes.Buffer
	if err := picperfect.Encode(&buf, res.Image, "."+strings.ToLower(format.String())); err != nil {
		respondError(c, http.StatusInternalServerError, "could not encode the image", err)
		return
	}

	c.Header(FacesHeader, strconv.Itoa(res.Faces))
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", enhancedName(upload.Filename, format)))
	c.Data(http.StatusOK, contentTypes[format], buf.Bytes())
}

func readImage(fh *multipart.FileHeader) (image.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return picperfect.Decode(f)
}

// readLandmarks returns the supplied landmark sets, or nil when there are none.
func readLandmarks(c *gin.Context) ([]landmark.Face, error) {
	var r io.Reader
	if fh, err := c.FormFile("landmarks"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	} else if v, ok := c.GetPostForm("landmarks"); ok && strings.TrimSpace(v) != "" {
		r = strings.NewReader(v)
	} else {
		return nil, nil
	}

	file, err := landmark.Load(r)
	if err != nil {
		return nil, err
	}
	return file.Resolve()
}

func enhancedName(upload string, format imaging.Format) string {
	base := strings.TrimSuffix(filepath.Base(upload), filepath.Ext(upload))
	if base == "" || base == "." {
		base = "image"
	}
	return base + "-enhanced." + strings.ToLower(format.String())
}
