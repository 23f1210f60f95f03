// Package download serves the installer binaries used to connect clusters.
package download

// swagger:parameters download
type _ struct {
	// in: path
	// required: true
	Filename string `json:"filename"`
}
