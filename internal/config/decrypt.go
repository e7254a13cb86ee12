package config

import (
	"bytes"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// unprotectScript decrypts a base64 DPAPI blob the way choco stores secrets
const unprotectScript = "Add-Type -AssemblyName System.Security;" +
	"([System.Text.UTF8Encoding]::UTF8.GetString([System.Security.Cryptography.ProtectedData]::Unprotect(" +
	"([System.Convert]::FromBase64String('%s'))," +
	"([System.Text.UTF8Encoding]::UTF8.GetBytes('Chocolatey'))," +
	"[System.Security.Cryptography.DataProtectionScope]::LocalMachine)))"

// Decrypt returns the plain text of a secret from chocolatey.config. On
// Windows it calls DPAPI through PowerShell; elsewhere values are returned
// unchanged since they were never encrypted.
func Decrypt(encrypted string) (string, error) {
	if runtime.GOOS != "windows" {
		return encrypted, nil
	}
	if strings.ContainsAny(encrypted, "'\r\n") {
		return "", fmt.Errorf("invalid encrypted value")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command("powershell.exe", "-NoProfile", "-ExecutionPolicy", "Bypass",
		fmt.Sprintf(unprotectScript, encrypted))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("powershell: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
