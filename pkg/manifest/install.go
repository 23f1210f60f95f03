package manifest

import (
	"fmt"
	"strings"
)

// InstallCommands are equivalent snippets per operating system which download the installer and
// redeem the install token with it.
// swagger:model
type InstallCommands struct {
	Linux   string `json:"linux"`
	MacOS   string `json:"macos"`
	Windows string `json:"windows"`
}

// NewInstallCommands returns the commands installing the agent. The installer binary is downloaded
// from downloadBaseURL and calls back to backendURL with installToken.
func NewInstallCommands(backendURL, downloadBaseURL, installToken string) InstallCommands {
	downloadBaseURL = strings.TrimSuffix(downloadBaseURL, "/")

	unix := func(os string) string {
		return fmt.Sprintf(`ARCH=$(uname -m | sed -e 's/x86_64/amd64/' -e 's/aarch64/arm64/') && \
curl -fsSL -o kubervise "%s/downloads/kubervise-%s-${ARCH}" && \
chmod +x kubervise && \
KUBERVISE_API_URL=%q ./kubervise install %s`, downloadBaseURL, os, backendURL, installToken)
	}

	windows := fmt.Sprintf(`Invoke-WebRequest -Uri "%s/downloads/kubervise-windows-amd64.exe" -OutFile kubervise.exe; `+
		`$env:KUBERVISE_API_URL = "%s"; `+
		`.\kubervise.exe install %s`, downloadBaseURL, backendURL, installToken)

	return InstallCommands{
		Linux:   unix("linux"),
		MacOS:   unix("darwin"),
		Windows: windows,
	}
}
