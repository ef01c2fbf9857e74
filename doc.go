/*
Package picperfect enhances portraits by re-rendering two small regions of every face:
the eyes, whose irises are moved toward the eye center so the subject looks into the
camera, and the mouth, whose middle is lifted while the corners stay anchored.

The package provides a command line interface and an HTTP server; to check the
supported commands type:

	$ picperfect --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		picperfect "github.com/Ak-arsha/Picture-Perfect"
	)

	func main() {
		finder, err := picperfect.NewFaceFinder("./cascade")
		if err != nil {
			// handle error
		}
		p := &picperfect.Processor{
			GazeIntensity:  1.0,
			SmileIntensity: 6.0,
			Detector:       finder,
		}

		if err := p.Process(in, out); err != nil {
			fmt.Printf("Error enhancing image: %s", err.Error())
		}
	}

Landmarks can also be supplied directly through Processor.Faces, for example from a
landmark file produced by a dense face mesh detector (see the landmark package).
*/
package picperfect
