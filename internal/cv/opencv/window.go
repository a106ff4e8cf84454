package opencv

import (
	"gocv.io/x/gocv"
	"jordanella.com/switch-farm-go/internal/cv"
)

// DefaultCancelKey is the key that ends a run from the preview window
const DefaultCancelKey = 'q'

// Window mirrors frames into a native OpenCV window and watches for the cancel key
type Window struct {
	window    *gocv.Window
	cancelKey int
}

// NewWindow opens a preview window
func NewWindow(title string, cancelKey rune) *Window {
	if cancelKey == 0 {
		cancelKey = DefaultCancelKey
	}
	return &Window{
		window:    gocv.NewWindow(title),
		cancelKey: int(cancelKey),
	}
}

// Show renders the frame and polls the keyboard once
func (w *Window) Show(frame *cv.Frame) (bool, error) {
	mat, err := FrameToMat(frame)
	if err != nil {
		return false, err
	}
	defer mat.Close()

	w.window.IMShow(mat)
	key := w.window.WaitKey(1)
	return key&0xff == w.cancelKey, nil
}

func (w *Window) Close() error {
	return w.window.Close()
}
