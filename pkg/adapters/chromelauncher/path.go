package chromelauncher

import (
	"os"
	"os/exec"
	"runtime"
)

// ResolveChromePath resolves the Chrome executable path in the following order:
// 1. explicitPath when non-empty
// 2. CHROME_PATH environment variable
// 3. System defaults (chromium before chrome)
func ResolveChromePath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}
	if envPath := os.Getenv("CHROME_PATH"); envPath != "" {
		return envPath
	}
	return findSystemChrome()
}

// findSystemChrome searches system default locations, preferring the
// lighter Chromium builds.
func findSystemChrome() string {
	var candidates []string

	switch runtime.GOOS {
	case "darwin":
		candidates = []string{
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		}
	case "linux":
		candidates = []string{
			"chromium",
			"chromium-browser",
			"google-chrome-stable",
			"google-chrome",
		}
	case "windows":
		for _, env := range []string{"PROGRAMFILES", "PROGRAMFILES(X86)", "LOCALAPPDATA"} {
			if base := os.Getenv(env); base != "" {
				candidates = append(candidates,
					base+`\Chromium\Application\chrome.exe`,
					base+`\Google\Chrome\Application\chrome.exe`,
				)
			}
		}
	}

	for _, candidate := range candidates {
		if path := resolveExecutable(candidate); path != "" {
			return path
		}
	}
	return ""
}

// resolveExecutable checks a full path for existence, or looks a bare
// command name up in PATH.
func resolveExecutable(nameOrPath string) string {
	if len(nameOrPath) > 0 && (nameOrPath[0] == '/' || (len(nameOrPath) > 1 && nameOrPath[1] == ':')) {
		if _, err := os.Stat(nameOrPath); err == nil {
			return nameOrPath
		}
		return ""
	}
	if path, err := exec.LookPath(nameOrPath); err == nil {
		return path
	}
	return ""
}
