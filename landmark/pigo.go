package landmark

// Indices of the compact set assembled from pigo's pupil localisation and
// facial landmark point cascades.
const (
	PigoLeftPupil = iota
	PigoRightPupil
	PigoLeftEyeOuter
	PigoLeftEyeInner
	PigoRightEyeOuter
	PigoRightEyeInner
	PigoMouthLeft
	PigoMouthRight
	PigoUpperLip
	PigoLowerLip

	PigoSize
)

// Pigo is the layout produced by the pigo based face finder. It has no eye
// contour ring and no iris perimeter, so it only drives the smile warp.
var Pigo = &Layout{
	Name: "pigo",
	Size: PigoSize,
	Eyes: [2]EyeLayout{
		Left:  {Inner: PigoLeftEyeInner, Outer: PigoLeftEyeOuter},
		Right: {Inner: PigoRightEyeInner, Outer: PigoRightEyeOuter},
	},
	Mouth: MouthLayout{
		Left:  PigoMouthLeft,
		Right: PigoMouthRight,
		Upper: PigoUpperLip,
		Lower: PigoLowerLip,
	},
}

// Layouts lists the known layouts by name.
var Layouts = map[string]*Layout{
	MediaPipe.Name: MediaPipe,
	Pigo.Name:      Pigo,
}
