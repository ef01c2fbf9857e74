package landmark

// MediaPipe Face Mesh indices (478 points with iris refinement enabled).
// Left and right refer to image space.
const (
	MPLeftEyeInner  = 33
	MPLeftEyeOuter  = 133
	MPLeftUpperLid1 = 159
	MPLeftLowerLid1 = 145
	MPLeftUpperLid2 = 158
	MPLeftLowerLid2 = 153
	MPLeftIris      = 468

	MPRightEyeInner  = 362
	MPRightEyeOuter  = 263
	MPRightUpperLid1 = 386
	MPRightLowerLid1 = 374
	MPRightUpperLid2 = 387
	MPRightLowerLid2 = 373
	MPRightIris      = 473

	MPMouthLeft  = 61
	MPMouthRight = 291
	MPUpperLip   = 0
	MPLowerLip   = 17

	MPMeshSize = 478
)

var (
	mpLeftContour = []int{
		33, 246, 161, 160, 159, 158, 157, 173,
		133, 155, 154, 153, 145, 144, 163, 7,
	}
	mpRightContour = []int{
		362, 398, 384, 385, 386, 387, 388, 466,
		263, 249, 390, 373, 374, 380, 381, 382,
	}
)

// MediaPipe is the layout of MediaPipe Face Mesh with iris refinement.
var MediaPipe = &Layout{
	Name: "mediapipe",
	Size: MPMeshSize,
	Eyes: [2]EyeLayout{
		Left: {
			Inner:   MPLeftEyeInner,
			Outer:   MPLeftEyeOuter,
			Contour: mpLeftContour,
			Lids:    [2][2]int{{MPLeftUpperLid1, MPLeftLowerLid1}, {MPLeftUpperLid2, MPLeftLowerLid2}},
			Iris: &IrisLayout{
				Center:    MPLeftIris,
				Perimeter: [4]int{469, 470, 471, 472},
			},
		},
		Right: {
			Inner:   MPRightEyeInner,
			Outer:   MPRightEyeOuter,
			Contour: mpRightContour,
			Lids:    [2][2]int{{MPRightUpperLid1, MPRightLowerLid1}, {MPRightUpperLid2, MPRightLowerLid2}},
			Iris: &IrisLayout{
				Center:    MPRightIris,
				Perimeter: [4]int{474, 475, 476, 477},
			},
		},
	},
	Mouth: MouthLayout{
		Left:  MPMouthLeft,
		Right: MPMouthRight,
		Upper: MPUpperLip,
		Lower: MPLowerLip,
	},
}
