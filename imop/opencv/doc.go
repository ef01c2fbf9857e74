// Package opencv registers an OpenCV backed implementation of the inpainting,
// seamless cloning, remapping and mask dilation operations under the backend
// name "opencv".
//
// The backend needs a local OpenCV installation and is only compiled with the
// gocv build tag:
//
//	go build -tags gocv ./...
//
// Without the tag importing the package is a no-op and the pure Go backend is used.
package opencv

// Name is the backend name registered by this package.
const Name = "opencv"
