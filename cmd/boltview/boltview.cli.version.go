package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"gopkg.in/yaml.v3"
)

// versionConfig holds parsed version command configuration
type versionConfig struct {
	format string
}

// versionInfo holds version information
type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// versionsYAML represents the versions.yaml release metadata file
type versionsYAML struct {
	Project struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"project"`
	Git struct {
		Commit string `yaml:"commit"`
		Branch string `yaml:"branch"`
	} `yaml:"git"`
	Build struct {
		Time      string `yaml:"time"`
		GoVersion string `yaml:"go_version"`
	} `yaml:"build"`
}

// versionsFilePaths are searched in order for release metadata.
var versionsFilePaths = []string{"versions.yaml", "../versions.yaml", "../../versions.yaml"}

func runVersion(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseVersionFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFormat, err)
		return ExitCodeUsageError
	}

	vInfo := getVersionInfo()

	if cfg.format == OutputFormatJSON {
		jsonBytes, _ := json.MarshalIndent(vInfo, "", "  ")
		fmt.Fprintln(stdout, string(jsonBytes))
		return ExitCodeSuccess
	}
	fmt.Fprintf(stdout, VersionTextTemplate+FmtNewline,
		vInfo.Version, vInfo.Commit, vInfo.Branch, vInfo.BuildTime, vInfo.GoVersion)
	return ExitCodeSuccess
}

func parseVersionFlags(args []string) (*versionConfig, error) {
	fs := flag.NewFlagSet(CmdNameVersion, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &versionConfig{}
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}

	return cfg, nil
}

// getVersionInfo prefers versions.yaml and falls back to the build info
// embedded by the Go toolchain.
func getVersionInfo() *versionInfo {
	vInfo := &versionInfo{
		Version:   VersionUnknown,
		Commit:    VersionUnknown,
		Branch:    VersionUnknown,
		BuildTime: VersionUnknown,
		GoVersion: runtime.Version(),
	}

	for _, path := range versionsFilePaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if applyVersionsYAML(vInfo, data) {
			return vInfo
		}
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		applyBuildInfo(vInfo, info)
	}
	return vInfo
}

func applyVersionsYAML(vInfo *versionInfo, data []byte) bool {
	var vy versionsYAML
	if err := yaml.Unmarshal(data, &vy); err != nil || vy.Project.Version == "" {
		return false
	}

	vInfo.Version = vy.Project.Version
	if vy.Git.Commit != "" {
		vInfo.Commit = vy.Git.Commit
	}
	if vy.Git.Branch != "" {
		vInfo.Branch = vy.Git.Branch
	}
	if vy.Build.Time != "" {
		vInfo.BuildTime = vy.Build.Time
	}
	if vy.Build.GoVersion != "" {
		vInfo.GoVersion = vy.Build.GoVersion
	}
	return true
}

func applyBuildInfo(vInfo *versionInfo, info *debug.BuildInfo) {
	if v := info.Main.Version; v != "" && v != "(devel)" {
		vInfo.Version = v
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			vInfo.Commit = setting.Value
		case "vcs.time":
			vInfo.BuildTime = setting.Value
		}
	}
}
