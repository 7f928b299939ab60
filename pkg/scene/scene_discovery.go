package scene

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-nearfield-flow/pkg/config"
)

// Scene source types
const (
	TypePreset = "preset"
	TypeFile   = "file"
)

// SceneInfo represents a discovered configuration with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "preset" or "file"
	FilePath    string `json:"filePath"`    // Path to YAML file (file type only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/presets
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

const presetGroup = "Presets"

// ListConfigFiles scans dir for YAML configurations. A missing directory
// yields an empty list.
func ListConfigFiles(dir string) ([]SceneInfo, error) {
	if dir == "" {
		return []SceneInfo{}, nil
	}
	if _, err := os.Stat(dir); err != nil {
		return []SceneInfo{}, nil
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan config directory: %w", err)
		}
		files = append(files, matches...)
	}

	scenes := make([]SceneInfo, 0, len(files))
	for _, filePath := range files {
		info, err := ParseMetadata(filePath)
		if err != nil {
			continue
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes, nil
}

// ParseMetadata extracts metadata from the leading comment block of a YAML
// file: "# Scene:", "# Description:" and "# Group:" lines.
func ParseMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	info := SceneInfo{
		ID:          "file:" + nameWithoutExt,
		Name:        titleCase(nameWithoutExt),
		DisplayName: titleCase(nameWithoutExt),
		Group:       "Config Files",
		Type:        TypeFile,
		FilePath:    filePath,
	}

	file, err := os.Open(filePath)
	if err != nil {
		return info, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			break
		}
		content := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		switch {
		case strings.HasPrefix(content, "Scene:"):
			info.Name = strings.TrimSpace(strings.TrimPrefix(content, "Scene:"))
		case strings.HasPrefix(content, "Description:"):
			info.Description = strings.TrimSpace(strings.TrimPrefix(content, "Description:"))
		case strings.HasPrefix(content, "Group:"):
			info.Group = strings.TrimSpace(strings.TrimPrefix(content, "Group:"))
		}
	}
	info.DisplayName = info.Name

	return info, scanner.Err()
}

// ListAllScenes returns presets first, then config files of dir grouped
// alphabetically.
func ListAllScenes(dir string) (ScenesResponse, error) {
	var response ScenesResponse

	presets := make([]SceneInfo, 0, len(config.Presets()))
	for _, name := range config.Presets() {
		cfg, err := config.Preset(name)
		if err != nil {
			return response, fmt.Errorf("preset %s: %w", name, err)
		}
		presets = append(presets, SceneInfo{
			ID:          name,
			Name:        name,
			DisplayName: name,
			Description: describe(cfg),
			Group:       presetGroup,
			Type:        TypePreset,
		})
	}
	response.Groups = append(response.Groups, SceneGroup{Name: presetGroup, Scenes: presets})

	files, err := ListConfigFiles(dir)
	if err != nil {
		return response, err
	}
	groupMap := make(map[string][]SceneInfo)
	for _, s := range files {
		groupMap[s.Group] = append(groupMap[s.Group], s)
	}
	groupNames := make([]string, 0, len(groupMap))
	for name := range groupMap {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)
	for _, name := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{Name: name, Scenes: groupMap[name]})
	}

	return response, nil
}

// ErrInvalidSceneID is returned by Resolve for ids that name a path
// rather than a preset or a file inside the configuration directory.
var ErrInvalidSceneID = errors.New("invalid scene id")

// Resolve loads a configuration by id: a preset name, or "file:<name>"
// looked up in dir. Names must be bare file names, so ids cannot reach
// outside dir, and errors never carry filesystem paths.
func Resolve(id, dir string) (*config.Config, error) {
	name, ok := strings.CutPrefix(id, "file:")
	if !ok {
		if strings.ContainsAny(id, `/\`) || strings.HasSuffix(id, ".yaml") || strings.HasSuffix(id, ".yml") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSceneID, id)
		}
		return config.Preset(id)
	}
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSceneID, id)
	}
	if dir == "" {
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownPreset, id)
	}
	for _, ext := range []string{".yaml", ".yml"} {
		data, err := os.ReadFile(filepath.Join(dir, name+ext))
		if err != nil {
			continue
		}
		cfg, err := config.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
		return cfg, nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownPreset, id)
}

func describe(cfg *config.Config) string {
	materials := make([]string, len(cfg.Layers))
	for i, l := range cfg.Layers {
		materials[i] = l.Material
	}
	return fmt.Sprintf("%s at %g %s", strings.Join(materials, "/"), cfg.Wavelength, cfg.Units)
}

// titleCase converts a filename-style string to title case
// e.g., "si-sphere" -> "Si Sphere"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
