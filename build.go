//go:build ignore

// build.go - fedstat build script
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, cli, server, test, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const versionPkg = "fedstatcli/internal/config"

var (
	distDir = "dist"

	// key = directory under cmd/, value = output binary
	executables = map[string]string{
		"fedstat":        "fedstat",
		"fedstat-server": "fedstat-server",
	}
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	start := time.Now()
	switch *target {
	case "all":
		for name := range executables {
			buildExecutable(name, *verbose)
		}
	case "cli":
		buildExecutable("fedstat", *verbose)
	case "server":
		buildExecutable("fedstat-server", *verbose)
	case "test":
		runTests(*verbose)
	case "clean":
		if err := os.RemoveAll(distDir); err != nil {
			printError(fmt.Sprintf("Failed to clean %s: %v", distDir, err))
			os.Exit(1)
		}
	default:
		printError(fmt.Sprintf("Unknown target %q (all, cli, server, test, clean)", *target))
		os.Exit(1)
	}

	fmt.Printf("[SUCCESS] Build completed in %s\n", time.Since(start).Round(time.Millisecond))
}

func buildExecutable(name string, verbose bool) {
	exeName := executables[name]
	if runtime.GOOS == "windows" {
		exeName += ".exe"
	}
	fmt.Printf("[INFO] Building %s...\n", name)

	ldflags := fmt.Sprintf("-s -w -X %s.BuildTime=%s -X %s.GitCommit=%s",
		versionPkg, time.Now().UTC().Format(time.RFC3339), versionPkg, gitCommit())

	outputPath := filepath.Join(distDir, exeName)
	args := []string{"build", "-ldflags", ldflags, "-o", outputPath, "./cmd/" + name}
	if verbose {
		args = append([]string{"build", "-v"}, args[1:]...)
		fmt.Printf("go %s\n", strings.Join(args, " "))
	}

	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		fmt.Printf("[INFO] %s: %.2f MB\n", outputPath, float64(info.Size())/1024/1024)
	}
}

func runTests(verbose bool) {
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
}

func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func printError(msg string) {
	fmt.Fprintf(os.Stderr, "[ERROR] %s\n", msg)
}
