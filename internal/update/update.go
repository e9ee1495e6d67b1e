// Package update provides self-update functionality for the weft binary:
// check GitHub releases for a newer semver tag, download and checksum the
// platform binary, and swap it in for the currently running executable.
package update

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/weftsh/weft/internal/version"
)

const (
	// GitHubAPILatestRelease is the URL for fetching the latest release info.
	GitHubAPILatestRelease = "https://api.github.com/repos/weftsh/weft/releases/latest"

	// GitHubReleaseBinaryTemplate is the URL template for downloading
	// binaries: version, OS, arch.
	GitHubReleaseBinaryTemplate = "https://github.com/weftsh/weft/releases/download/v%s/weft-%s-%s"

	// GitHubReleaseChecksumsTemplate is the URL template for downloading
	// checksums.
	GitHubReleaseChecksumsTemplate = "https://github.com/weftsh/weft/releases/download/v%s/checksums.txt"

	httpTimeout = 30 * time.Second
)

var httpClient = &http.Client{Timeout: httpTimeout}

// Update checks for and applies an update to the weft binary.
func Update() error {
	current := version.Version
	if current == "dev" {
		return fmt.Errorf("cannot update dev builds - build from source instead")
	}
	if err := checkPlatformSupport(); err != nil {
		return err
	}

	fmt.Printf("[update] current version: %s\n", current)
	fmt.Println("Checking for updates...")

	latest, updateAvailable, err := CheckForUpdate()
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}
	if !updateAvailable {
		fmt.Println("Already up to date.")
		return nil
	}
	fmt.Printf("[update] new version available: %s\n", latest)

	checksums, err := downloadChecksums(latest)
	if err != nil {
		return fmt.Errorf("failed to download checksums: %w", err)
	}
	if err := downloadAndInstallBinary(latest, checksums); err != nil {
		return fmt.Errorf("failed to update binary: %w", err)
	}

	fmt.Println("Updated successfully. Restart weft to use the new version.")
	return nil
}

func checkPlatformSupport() error {
	supported := map[string][]string{
		"darwin": {"amd64", "arm64"},
		"linux":  {"amd64", "arm64"},
	}
	archs, ok := supported[runtime.GOOS]
	if !ok {
		return fmt.Errorf("unsupported operating system: %s (weft supports macOS and Linux)", runtime.GOOS)
	}
	for _, arch := range archs {
		if arch == runtime.GOARCH {
			return nil
		}
	}
	return fmt.Errorf("unsupported architecture: %s/%s", runtime.GOOS, runtime.GOARCH)
}

// CheckForUpdate checks whether a newer version is available without
// installing it.
func CheckForUpdate() (latestVersion string, updateAvailable bool, err error) {
	current := version.Version
	if current == "dev" {
		return "", false, nil
	}

	latest, err := GetLatestVersion()
	if err != nil {
		return "", false, err
	}

	vLatest, err := semver.NewVersion("v" + latest)
	if err != nil {
		return latest, false, nil
	}
	vCurrent, err := semver.NewVersion("v" + current)
	if err != nil {
		return latest, false, nil
	}
	return latest, vLatest.GreaterThan(vCurrent), nil
}

// GetLatestVersion fetches the latest release tag from GitHub, stripped of
// its "v" prefix.
func GetLatestVersion() (string, error) {
	resp, err := httpClient.Get(GitHubAPILatestRelease)
	if err != nil {
		return "", fmt.Errorf("failed to fetch release info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("GitHub API rate limit exceeded - try again later")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GitHub API returned %s", resp.Status)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("failed to parse release info: %w", err)
	}
	if release.TagName == "" {
		return "", fmt.Errorf("no release tag found")
	}
	return strings.TrimPrefix(release.TagName, "v"), nil
}

// downloadChecksums fetches and parses checksums.txt for a release into a
// filename -> hex SHA256 map.
func downloadChecksums(ver string) (map[string]string, error) {
	url := fmt.Sprintf(GitHubReleaseChecksumsTemplate, ver)

	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: %s", resp.Status)
	}

	checksums := make(map[string]string)
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 {
			checksums[parts[len(parts)-1]] = parts[0]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse checksums: %w", err)
	}
	return checksums, nil
}

// downloadAndInstallBinary downloads the binary for the current platform,
// verifies its checksum, and replaces the currently running executable.
func downloadAndInstallBinary(ver string, checksums map[string]string) error {
	goos := runtime.GOOS
	goarch := runtime.GOARCH
	binaryName := fmt.Sprintf("weft-%s-%s", goos, goarch)

	expectedHash, ok := checksums[binaryName]
	if !ok {
		return fmt.Errorf("no checksum found for %s", binaryName)
	}

	url := fmt.Sprintf(GitHubReleaseBinaryTemplate, ver, goos, goarch)
	fmt.Printf("[update] downloading weft v%s for %s/%s...\n", ver, goos, goarch)

	tmpFile, err := os.CreateTemp("", "weft-update-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	resp, err := httpClient.Get(url)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		tmpFile.Close()
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmpFile, hasher), resp.Body); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to save download: %w", err)
	}
	tmpFile.Close()

	actualHash := hex.EncodeToString(hasher.Sum(nil))
	if actualHash != expectedHash {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedHash, actualHash)
	}
	fmt.Println("Checksum verified.")

	if err := os.Chmod(tmpPath, 0o755); err != nil {
		return fmt.Errorf("failed to make executable: %w", err)
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to determine executable path: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}

	if err := os.Rename(tmpPath, execPath); err != nil {
		if err := copyFile(tmpPath, execPath); err != nil {
			return fmt.Errorf("failed to replace binary: %w", err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode())
}
