// Package tone applies the global tone adjustments a user can request on top of
// the face enhancements: brightness, contrast, softness, sharpness and warmth.
//
// The adjustments are described by a Params record, the same record a
// natural language assistant emits from a request like "make it a bit warmer".
package tone

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/Ak-arsha/Picture-Perfect/utils"
	"github.com/disintegration/imaging"
)

// Params holds the tone adjustments. The zero value leaves an image unchanged.
type Params struct {
	// Brightness is added to every channel.
	Brightness float64 `json:"brightness" form:"brightness" validate:"finite,gte=-100,lte=100"`
	// Contrast scales every channel by 1 + Contrast/100.
	Contrast float64 `json:"contrast" form:"contrast" validate:"finite,gte=-100,lte=100"`
	// Softness blurs the image; 1 is a 61 pixel wide Gaussian.
	Softness float64 `json:"softness" form:"softness" validate:"finite,gte=0,lte=1"`
	// Sharpness is the weight of an unsharp mask.
	Sharpness float64 `json:"sharpness" form:"sharpness" validate:"finite,gte=0,lte=1"`
	// Warmth is added to the red channel and removed from the blue one.
	Warmth float64 `json:"warmth" form:"warmth" validate:"finite,gte=-50,lte=50"`
}

// Parse decodes a JSON parameter record and validates it. Unknown keys are ignored.
func Parse(r io.Reader) (Params, error) {
	var p Params
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Params{}, fmt.Errorf("could not decode tone parameters: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate checks that every adjustment is within its documented range.
func (p Params) Validate() error {
	if err := utils.ValidateStruct(p); err != nil {
		return fmt.Errorf("invalid tone parameters: %w", err)
	}
	return nil
}

// IsZero reports whether p requests no adjustment.
func (p Params) IsZero() bool {
	return p == Params{}
}

// Apply returns a copy of img with the adjustments applied in a fixed order:
// brightness and contrast, softness, sharpness, then warmth.
func Apply(img image.Image, p Params) *image.NRGBA {
	out := imaging.Clone(img)
	if p.IsZero() {
		return out
	}

	if p.Brightness != 0 || p.Contrast != 0 {
		gain := 1 + p.Contrast/100
		out = imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
			c.R = level(float64(c.R)*gain + p.Brightness)
			c.G = level(float64(c.G)*gain + p.Brightness)
			c.B = level(float64(c.B)*gain + p.Brightness)
			return c
		})
	}

	if k := int(p.Softness*30)*2 + 1; k > 1 {
		out = imaging.Blur(out, kernelSigma(k))
	}

	if p.Sharpness > 0 {
		out = sharpen(out, p.Sharpness)
	}

	if p.Warmth != 0 {
		out = imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
			c.R = level(float64(c.R) + p.Warmth)
			c.B = level(float64(c.B) - p.Warmth)
			return c
		})
	}
	return out
}

// kernelSigma derives the Gaussian sigma matching a k×k kernel.
func kernelSigma(k int) float64 {
	return 0.3*(float64(k-1)*0.5-1) + 0.8
}

// sharpen subtracts a wide blur from the image with the given weight.
func sharpen(img *image.NRGBA, amount float64) *image.NRGBA {
	blur := imaging.Blur(img, 3)
	out := imaging.Clone(img)
	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := float64(img.Pix[i+c])*(1+amount) - float64(blur.Pix[i+c])*amount
			out.Pix[i+c] = uint8(utils.Clamp(math.Round(v), 0, 255))
		}
	}
	return out
}

// level truncates v into the 8-bit range.
func level(v float64) uint8 {
	return uint8(utils.Clamp(v, 0, 255))
}
