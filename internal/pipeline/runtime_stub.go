//go:build !govips || !cgo

package pipeline

// Startup is a no-op without the govips build tag; the pure-Go paths need no
// runtime initialization.
func Startup() error {
	return nil
}

func Shutdown() {}
