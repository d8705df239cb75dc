//go:build !cgo || nopcap

package capture

type stubNative struct{}

// NewNative returns a backend that always fails, leaving tshark as the only
// capture path.
func NewNative() Native {
	return stubNative{}
}

func (stubNative) Devices() ([]Interface, error) {
	return nil, ErrNativeUnavailable
}

func (stubNative) DefaultDevice() (string, error) {
	return "", ErrNativeUnavailable
}

func (stubNative) Open(string, Config) (NativeSource, error) {
	return nil, ErrNativeUnavailable
}
