// Package opencv binds the frame sampler to OpenCV capture devices and windows.
package opencv

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
	"jordanella.com/switch-farm-go/internal/cv"
)

// VideoCapture reads frames from a capture card through OpenCV
type VideoCapture struct {
	mu     sync.Mutex
	device *gocv.VideoCapture
	mat    gocv.Mat
	dims   cv.Dims
}

// OpenVideoCapture opens a device and fixes its resolution before the first read
func OpenVideoCapture(config *cv.CaptureConfig) (*VideoCapture, error) {
	if err := config.Resolution.Validate(); err != nil {
		return nil, err
	}

	device, err := gocv.OpenVideoCapture(config.Device)
	if err != nil {
		return nil, fmt.Errorf("failed to open video device %d: %w", config.Device, err)
	}

	device.Set(gocv.VideoCaptureFrameWidth, float64(config.Resolution.Width))
	device.Set(gocv.VideoCaptureFrameHeight, float64(config.Resolution.Height))

	return &VideoCapture{
		device: device,
		mat:    gocv.NewMat(),
		dims:   config.Resolution,
	}, nil
}

// Read grabs the next frame and copies it out of OpenCV memory
func (vc *VideoCapture) Read() (*cv.Frame, error) {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	if ok := vc.device.Read(&vc.mat); !ok || vc.mat.Empty() {
		return nil, fmt.Errorf("%w: device returned no frame", cv.ErrCaptureFailed)
	}
	return MatToFrame(vc.mat)
}

func (vc *VideoCapture) Dims() cv.Dims {
	return vc.dims
}

func (vc *VideoCapture) Close() error {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	vc.mat.Close()
	return vc.device.Close()
}

// MatToFrame copies a 3-channel 8-bit Mat into a frame
func MatToFrame(mat gocv.Mat) (*cv.Frame, error) {
	if mat.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("unsupported mat type %v", mat.Type())
	}
	dims := cv.Dims{Height: mat.Rows(), Width: mat.Cols()}
	return cv.NewFrame(dims, mat.ToBytes())
}

// FrameToMat copies a frame into a new Mat. The caller must close it.
func FrameToMat(frame *cv.Frame) (gocv.Mat, error) {
	d := frame.Dims()
	return gocv.NewMatFromBytes(d.Height, d.Width, gocv.MatTypeCV8UC3, frame.Data())
}
